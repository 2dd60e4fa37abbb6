package budget

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// These match the default network config settings.
const (
	DefaultCPUInsnLimit   uint64 = 100_000_000
	DefaultMemBytesLimit  uint64 = 100 * 1024 * 1024
	DefaultHostDepthLimit uint32 = 100
)

// budgetImpl is the interior state of a Budget. All mutation goes through
// the owning Budget's exclusive borrow.
type budgetImpl struct {
	cpuInsns *BudgetDimension
	memBytes *BudgetDimension
	// tracker is for calibration and reporting, not budget limiting.
	tracker    meterTracker
	enabled    bool
	fuelConfig FuelConfig
	depthLimit uint32
}

func (b *budgetImpl) charge(ty CostType, iterations uint64, input *uint64) error {
	if !b.enabled {
		return nil
	}

	b.tracker.count = saturatingAddU32(b.tracker.count, 1)
	entry := &b.tracker.entries[ty]
	entry.iterations = saturatingAdd(entry.iterations, iterations)
	switch {
	case !entry.hasInput && input == nil:
	case entry.hasInput && input != nil:
		entry.inputSum = saturatingAdd(entry.inputSum, saturatingMul(*input, iterations))
	default:
		// a wrong cost type has been passed in
		return types.NewError(types.ErrContext, types.CodeInternalError)
	}

	if err := b.cpuInsns.Charge(ty, iterations, input); err != nil {
		return err
	}
	return b.memBytes.Charge(ty, iterations, input)
}

func (b *budgetImpl) wasmFuelRemaining() uint64 {
	cpuRemaining := b.cpuInsns.Remaining()
	cpuPerFuel := b.cpuInsns.CostModel(WasmInsnExec).ConstTerm
	if cpuPerFuel < 1 {
		cpuPerFuel = 1
	}
	// The rounding loss is below one cpuPerFuel and does not accumulate
	// across calls: unspent fuel converts back to cpu when the vm returns.
	return cpuRemaining / cpuPerFuel
}

func saturatingAddU32(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// Budget is the shared two-dimensional resource accountant of a host
// invocation. One Budget is held by the host, the engine bridge, and the
// storage facade at once; every public entry point takes an exclusive
// borrow of the interior state for the duration of one call. A borrow
// conflict is a programmer error and surfaces as an internal error, never a
// panic. The budget is not safe for cross-goroutine sharing; an invocation
// runs to completion on one goroutine.
type Budget struct {
	mu   sync.Mutex
	impl budgetImpl
}

// NewDefault returns a budget populated with the calibrated default cost
// schedule and default limits. Actual operations configure the budget from
// on-chain network settings via FromConfigs.
func NewDefault() *Budget {
	b := &Budget{
		impl: budgetImpl{
			cpuInsns:   newBudgetDimension(),
			memBytes:   newBudgetDimension(),
			tracker:    newMeterTracker(),
			enabled:    true,
			fuelConfig: DefaultFuelConfig(),
			depthLimit: DefaultHostDepthLimit,
		},
	}
	for ct := CostType(0); int(ct) < NumCostTypes; ct++ {
		b.impl.cpuInsns.setCostModel(ct, defaultCostParams[ct].cpu)
		b.impl.memBytes.setCostModel(ct, defaultCostParams[ct].mem)
	}
	b.impl.cpuInsns.Reset(DefaultCPUInsnLimit)
	b.impl.memBytes.Reset(DefaultMemBytesLimit)
	return b
}

// FromConfigs initializes a budget from network configuration settings: the
// two limits plus one ordered cost schedule per dimension. Any negative
// schedule term fails with an invalid-input error.
func FromConfigs(cpuLimit, memLimit uint64, cpuParams, memParams CostParams) (*Budget, error) {
	cpu, err := dimensionFromParams(cpuParams)
	if err != nil {
		return nil, err
	}
	mem, err := dimensionFromParams(memParams)
	if err != nil {
		return nil, err
	}
	b := &Budget{
		impl: budgetImpl{
			cpuInsns:   cpu,
			memBytes:   mem,
			tracker:    newMeterTracker(),
			enabled:    true,
			fuelConfig: DefaultFuelConfig(),
			depthLimit: DefaultHostDepthLimit,
		},
	}
	b.impl.cpuInsns.Reset(cpuLimit)
	b.impl.memBytes.Reset(memLimit)
	return b, nil
}

// acquire takes the exclusive borrow. The returned release must be called
// exactly once. Failure to acquire means a reentrant borrow, which is a
// programmer error.
func (b *Budget) acquire() (func(), error) {
	if !b.mu.TryLock() {
		return nil, types.NewError(types.ErrContext, types.CodeInternalError)
	}
	return b.mu.Unlock, nil
}

// Charge charges the budget once under the given cost type. The amount is
// determined by the underlying cost models of both dimensions and may
// depend on the input; a nil input means the model is constant. The input's
// presence must match the cost type's declared presence.
func (b *Budget) Charge(ty CostType, input *uint64) error {
	return b.BulkCharge(ty, 1, input)
}

// BulkCharge performs a batched charge of iterations identical units. The
// caller guarantees the batched units share one cost type and input.
func (b *Budget) BulkCharge(ty CostType, iterations uint64, input *uint64) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	return b.impl.charge(ty, iterations, input)
}

// WithFreeBudget runs f with metering disabled, restoring the previous
// enabled state on every exit path, including f failing or panicking.
func (b *Budget) WithFreeBudget(f func() error) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	prev := b.impl.enabled
	b.impl.enabled = false
	release()

	defer func() {
		b.mu.Lock()
		b.impl.enabled = prev
		b.mu.Unlock()
	}()
	return f()
}

// Enter consumes one level of host depth. Underflow means the call tree is
// deeper than the configured limit and fails with an exceeded-limit error.
func (b *Budget) Enter() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	if b.impl.depthLimit == 0 {
		return types.NewError(types.ErrContext, types.CodeExceededLimit)
	}
	b.impl.depthLimit--
	return nil
}

// Leave returns one level of host depth. It is called in tandem with Enter;
// the increment saturates so unbalanced use cannot overflow.
func (b *Budget) Leave() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl.depthLimit = saturatingAddU32(b.impl.depthLimit, 1)
	return nil
}

// Tracker returns the recorded (iterations, input) sums for one cost type.
// The input is nil for constant cost types.
func (b *Budget) Tracker(ty CostType) (uint64, *uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, nil, err
	}
	defer release()
	entry := b.impl.tracker.entries[ty]
	if !entry.hasInput {
		return entry.iterations, nil, nil
	}
	sum := entry.inputSum
	return entry.iterations, &sum, nil
}

// TrackerCount returns the total number of meter calls.
func (b *Budget) TrackerCount() (uint32, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.tracker.count, nil
}

func (b *Budget) CPUInsnsConsumed() (uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.cpuInsns.TotalCount(), nil
}

func (b *Budget) MemBytesConsumed() (uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.memBytes.TotalCount(), nil
}

func (b *Budget) CPUInsnsRemaining() (uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.cpuInsns.Remaining(), nil
}

func (b *Budget) MemBytesRemaining() (uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.memBytes.Remaining(), nil
}

// CostCount returns the accumulated (cpu, mem) output of one cost type.
func (b *Budget) CostCount(ty CostType) (uint64, uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, 0, err
	}
	defer release()
	return b.impl.cpuInsns.Count(ty), b.impl.memBytes.Count(ty), nil
}

// ResetDefault restores the calibrated default schedule and limits.
func (b *Budget) ResetDefault() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl = NewDefault().impl
	return nil
}

// ResetUnlimited lifts both limits and clears the tracker.
func (b *Budget) ResetUnlimited() error {
	if err := b.ResetUnlimitedCPU(); err != nil {
		return err
	}
	return b.ResetUnlimitedMem()
}

func (b *Budget) ResetUnlimitedCPU() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	b.impl.cpuInsns.Reset(math.MaxUint64)
	release()
	return b.ResetTracker()
}

func (b *Budget) ResetUnlimitedMem() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	b.impl.memBytes.Reset(math.MaxUint64)
	release()
	return b.ResetTracker()
}

func (b *Budget) ResetTracker() error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl.tracker.reset()
	return nil
}

// ResetLimits resets both dimensions to new limits and clears the tracker.
func (b *Budget) ResetLimits(cpu, mem uint64) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	b.impl.cpuInsns.Reset(cpu)
	b.impl.memBytes.Reset(mem)
	release()
	return b.ResetTracker()
}

// OverrideModel replaces both dimensions' models for one cost type. This is
// a calibration and test surface; consensus execution uses FromConfigs.
func (b *Budget) OverrideModel(ty CostType, constCPU uint64, linCPU ScaledU64, constMem uint64, linMem ScaledU64) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl.cpuInsns.setCostModel(ty, CostModel{ConstTerm: constCPU, LinTerm: linCPU})
	b.impl.memBytes.setCostModel(ty, CostModel{ConstTerm: constMem, LinTerm: linMem})
	return nil
}

// SetFuelConfig replaces the engine fuel schedule.
func (b *Budget) SetFuelConfig(fc FuelConfig) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl.fuelConfig = fc
	return nil
}

// FuelCosts returns the fuel schedule to hand the engine.
func (b *Budget) FuelCosts() (FuelConfig, error) {
	release, err := b.acquire()
	if err != nil {
		return FuelConfig{}, err
	}
	defer release()
	return b.impl.fuelConfig, nil
}

// SetDepthLimit replaces the remaining host depth.
func (b *Budget) SetDepthLimit(depth uint32) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	b.impl.depthLimit = depth
	return nil
}

// WasmFuelRemaining converts the remaining cpu budget into engine fuel
// units, dividing by the cpu cost of one fuel.
func (b *Budget) WasmFuelRemaining() (uint64, error) {
	release, err := b.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return b.impl.wasmFuelRemaining(), nil
}

// String renders the per-cost-type counters, mirroring what operators see
// when diagnosing an over-budget invocation.
func (b *Budget) String() string {
	release, err := b.acquire()
	if err != nil {
		return "budget: <borrowed>"
	}
	defer release()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cpu limit: %d; used: %d\n", b.impl.cpuInsns.Limit(), b.impl.cpuInsns.TotalCount())
	fmt.Fprintf(&sb, "Mem limit: %d; used: %d\n", b.impl.memBytes.Limit(), b.impl.memBytes.TotalCount())
	fmt.Fprintf(&sb, "%-25s%-15s%-15s\n", "CostType", "cpu_insns", "mem_bytes")
	for ct := CostType(0); int(ct) < NumCostTypes; ct++ {
		fmt.Fprintf(&sb, "%-25s%-15d%-15d\n", ct, b.impl.cpuInsns.Count(ct), b.impl.memBytes.Count(ct))
	}
	fmt.Fprintf(&sb, "Total # times meter was called: %d\n", b.impl.tracker.count)
	return sb.String()
}
