// Package vm wraps the wasm engine. The engine itself is a collaborator:
// this layer prices instantiation and invocation against the budget, hands
// the engine its fuel schedule and resource-limiter callbacks, and moves
// bytes between vm linear memory and the host under metering.
package vm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	wazeroapi "github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/host"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

const (
	wasmPageSize = 65536
	// memoryLimitPages caps engine linear memory at the runtime level; the
	// budget-backed limiter constrains growth well below this.
	memoryLimitPages   = 1600
	maxEngineCallDepth = 32
)

// Engine owns one wasm runtime and a cache of compiled modules keyed by
// code hash. Instantiating from the cache is charged at the cached rate.
type Engine struct {
	host     *host.Host
	limiter  *budget.Limiter
	runtime  wazero.Runtime
	compiled map[types.Hash]wazero.CompiledModule
	fuel     budget.FuelConfig
	ctx      context.Context
}

// VM is one instantiated contract module.
type VM struct {
	engine       *Engine
	contractID   types.Hash
	module       wazeroapi.Module
	insnEstimate uint64
}

// NewEngine creates the runtime and reads the fuel schedule off the budget.
func NewEngine(ctx context.Context, h *host.Host) (*Engine, error) {
	fuel, err := h.Budget().FuelCosts()
	if err != nil {
		return nil, err
	}
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithMemoryLimitPages(memoryLimitPages).
		WithCloseOnContextDone(true))
	return &Engine{
		host:     h,
		limiter:  budget.NewLimiter(h.Budget()),
		runtime:  r,
		compiled: make(map[types.Hash]wazero.CompiledModule),
		fuel:     fuel,
		ctx:      ctx,
	}, nil
}

// Close releases the runtime and all instantiated modules.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// ValidateWasm rejects blobs that are not wasm or that contain
// floating-point opcodes, which would make execution nondeterministic.
func ValidateWasm(code []byte) error {
	if len(code) < 4 || code[0] != 0x00 || code[1] != 0x61 || code[2] != 0x73 || code[3] != 0x6d {
		return fmt.Errorf("invalid WASM magic number: %w",
			types.NewError(types.ErrValue, types.CodeInvalidInput))
	}
	if containsFloatOpcodes(code) {
		return fmt.Errorf("wasm contains floating-point opcodes: %w",
			types.NewError(types.ErrValue, types.CodeInvalidInput))
	}
	return nil
}

// Instantiate compiles (or reuses) a module and instantiates it for a
// contract, charging instantiation by wasm byte length. The minimum size of
// each exported memory is cleared through the resource limiter before the
// engine is allowed to reserve it; memories that are not exported are not
// checked.
func (e *Engine) Instantiate(contractID, wasmHash types.Hash, code []byte) (*VM, error) {
	b := e.host.Budget()

	compiled, cached := e.compiled[wasmHash]
	ty := budget.VmInstantiation
	if cached {
		ty = budget.VmCachedInstantiation
	}
	if err := b.Charge(ty, budget.Input(uint64(len(code)))); err != nil {
		return nil, err
	}

	if !cached {
		if err := ValidateWasm(code); err != nil {
			return nil, err
		}
		var err error
		compiled, err = e.runtime.CompileModule(e.withCallDepthListener(), code)
		if err != nil {
			return nil, fmt.Errorf("failed to compile wasm module: %w", err)
		}
		e.compiled[wasmHash] = compiled
	}

	for _, def := range compiled.ExportedMemories() {
		desired := uint64(def.Min()) * wasmPageSize
		maxPages, hasMax := def.Max()
		if err := e.limiter.MemoryGrowing(0, desired, uint64(maxPages)*wasmPageSize, hasMax); err != nil {
			return nil, err
		}
	}

	mod, err := e.runtime.InstantiateModule(e.withCallDepthListener(), compiled,
		wazero.NewModuleConfig().WithName(contractID.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate wasm module: %w", err)
	}

	return &VM{
		engine:       e,
		contractID:   contractID,
		module:       mod,
		insnEstimate: estimateInstructions(code),
	}, nil
}

// Invoke calls an exported function. The invocation consumes one level of
// host depth and pre-charges the wasm work at the engine fuel schedule;
// whatever the module cannot pay for is never run.
func (vm *VM) Invoke(fn string, params ...uint64) (results []uint64, err error) {
	b := vm.engine.host.Budget()
	if err := b.Enter(); err != nil {
		return nil, err
	}
	defer func() {
		if lerr := b.Leave(); lerr != nil && err == nil {
			err = lerr
		}
	}()

	if err := b.Charge(budget.InvokeVmFunction, nil); err != nil {
		return nil, err
	}
	fuelSpent := saturatingAdd(vm.engine.fuel.Call, saturatingMul(vm.engine.fuel.Base, vm.insnEstimate))
	if err := b.BulkCharge(budget.WasmInsnExec, fuelSpent, nil); err != nil {
		return nil, err
	}

	f := vm.module.ExportedFunction(fn)
	if f == nil {
		return nil, fmt.Errorf("exported function %q not found: %w", fn,
			types.NewError(types.ErrValue, types.CodeMissingValue))
	}

	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("wasm trap: %v: %w", r,
				types.NewError(types.ErrContext, types.CodeExceededLimit))
		}
	}()
	results, callErr := f.Call(vm.engine.withCallDepthListener(), params...)
	if callErr != nil {
		return nil, fmt.Errorf("wasm call %q failed: %w", fn, callErr)
	}
	return results, nil
}

// MemRead copies n bytes out of vm linear memory under metering.
func (vm *VM) MemRead(offset, n uint32) ([]byte, error) {
	b := vm.engine.host.Budget()
	if err := b.Charge(budget.VmMemRead, budget.Input(uint64(n))); err != nil {
		return nil, err
	}
	data, ok := vm.module.Memory().Read(offset, n)
	if !ok {
		return nil, fmt.Errorf("vm memory read out of range [%d, %d): %w", offset, offset+n,
			types.NewError(types.ErrValue, types.CodeInvalidInput))
	}
	return append([]byte(nil), data...), nil
}

// MemWrite copies data into vm linear memory under metering.
func (vm *VM) MemWrite(offset uint32, data []byte) error {
	b := vm.engine.host.Budget()
	if err := b.Charge(budget.VmMemWrite, budget.Input(uint64(len(data)))); err != nil {
		return err
	}
	if !vm.module.Memory().Write(offset, data) {
		return fmt.Errorf("vm memory write out of range at %d: %w", offset,
			types.NewError(types.ErrValue, types.CodeInvalidInput))
	}
	return nil
}

// GrowMemory grows vm linear memory by deltaPages, consulting the resource
// limiter before the engine reserves anything.
func (vm *VM) GrowMemory(deltaPages uint32) (uint32, error) {
	mem := vm.module.Memory()
	current := uint64(mem.Size())
	desired := current + uint64(deltaPages)*wasmPageSize
	var maxBytes uint64
	hasMax := false
	if def := vm.module.ExportedMemoryDefinitions()["memory"]; def != nil {
		if maxPages, ok := def.Max(); ok {
			maxBytes = uint64(maxPages) * wasmPageSize
			hasMax = true
		}
	}
	if err := vm.engine.limiter.MemoryGrowing(current, desired, maxBytes, hasMax); err != nil {
		return 0, err
	}
	prev, ok := mem.Grow(deltaPages)
	if !ok {
		return 0, budget.ErrOutOfBoundsGrowth
	}
	return prev, nil
}

// withCallDepthListener attaches a function listener that bounds the
// engine-side call stack.
func (e *Engine) withCallDepthListener() context.Context {
	factory := experimental.FunctionListenerFactoryFunc(func(def wazeroapi.FunctionDefinition) experimental.FunctionListener {
		return experimental.FunctionListenerFunc(func(ctx context.Context, mod wazeroapi.Module, def wazeroapi.FunctionDefinition, params []uint64, stack experimental.StackIterator) {
			depth := 0
			for stack.Next() {
				depth++
			}
			if depth > maxEngineCallDepth {
				panic(fmt.Errorf("wasm max call depth exceeded: %d", depth))
			}
		})
	})
	return experimental.WithFunctionListenerFactory(e.ctx, factory)
}

// estimateInstructions returns a deterministic fuel upper bound for a wasm
// module, based on code size.
func estimateInstructions(code []byte) uint64 {
	return uint64(len(code))
}

// containsFloatOpcodes scans for float opcode bytes. Conservative: it may
// reject some valid modules, but it is deterministic.
func containsFloatOpcodes(code []byte) bool {
	floatOpcodes := map[byte]struct{}{
		0x43: {}, // f32.const
		0x44: {}, // f64.const
		0x8b: {}, // f32.add
		0x8c: {}, // f32.sub
		0x8d: {}, // f32.mul
		0x8e: {}, // f32.div
		0x99: {}, // f64.add
		0x9a: {}, // f64.sub
		0x9b: {}, // f64.mul
		0x9c: {}, // f64.div
	}
	for _, c := range code {
		if _, ok := floatOpcodes[c]; ok {
			return true
		}
	}
	return false
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}
