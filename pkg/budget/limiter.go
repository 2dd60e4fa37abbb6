package budget

import "errors"

// Errors surfaced to the engine through the resource-limiter callbacks.
var (
	ErrOutOfBoundsGrowth    = errors.New("out of bounds memory growth")
	ErrTableGrowOutOfBounds = errors.New("out of bounds table growth")
)

// ResourceLimiter is the callback surface the wasm engine drives while a
// module executes. Any engine that consults these callbacks before growing
// memory or tables can run against the budget; the surface deliberately
// exposes nothing of the budget internals.
type ResourceLimiter interface {
	// MemoryGrowing is consulted before linear memory grows from current
	// to desired bytes. maximum is the module-declared cap when hasMax.
	MemoryGrowing(current, desired uint64, maximum uint64, hasMax bool) error
	// TableGrowing is consulted before a table grows from current to
	// desired elements.
	TableGrowing(current, desired uint32, maximum uint32, hasMax bool) error
	// Instances, Tables and Memories are the fixed instantiation caps.
	Instances() int
	Tables() int
	Memories() int
}

// engineLimits are the fixed caps reported to the engine.
var engineLimits = struct {
	tableElements uint32
	instances     int
	tables        int
	memories      int
}{
	tableElements: 1000,
	instances:     1,
	tables:        1,
	memories:      1,
}

// Limiter implements ResourceLimiter against a Budget. Memory growth is
// charged as engine memory fuel; table growth is currently free but capped.
type Limiter struct {
	budget *Budget
}

func NewLimiter(b *Budget) *Limiter {
	return &Limiter{budget: b}
}

func (l *Limiter) MemoryGrowing(current, desired uint64, maximum uint64, hasMax bool) error {
	remaining, err := l.budget.MemBytesRemaining()
	if err != nil {
		return ErrOutOfBoundsGrowth
	}
	if desired > remaining {
		return ErrOutOfBoundsGrowth
	}
	if hasMax && desired > maximum {
		return ErrOutOfBoundsGrowth
	}
	var delta uint64
	if desired > current {
		delta = desired - current
	}
	if err := l.budget.BulkCharge(WasmMemAlloc, delta, nil); err != nil {
		return ErrOutOfBoundsGrowth
	}
	return nil
}

func (l *Limiter) TableGrowing(current, desired uint32, maximum uint32, hasMax bool) error {
	if desired > engineLimits.tableElements {
		return ErrTableGrowOutOfBounds
	}
	if hasMax && desired > maximum {
		return ErrTableGrowOutOfBounds
	}
	return nil
}

func (l *Limiter) Instances() int {
	return engineLimits.instances
}

func (l *Limiter) Tables() int {
	return engineLimits.tables
}

func (l *Limiter) Memories() int {
	return engineLimits.memories
}

// TableElements returns the fixed per-table element cap.
func (l *Limiter) TableElements() uint32 {
	return engineLimits.tableElements
}
