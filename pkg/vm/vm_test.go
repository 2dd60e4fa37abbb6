package vm

import (
	"context"
	"testing"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/encoding"
	"github.com/aetheriaxai/wasmhost/pkg/host"
	"github.com/aetheriaxai/wasmhost/pkg/storage"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// emptyModule is the smallest valid wasm module: magic plus version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func newTestEngine(t *testing.T) (*Engine, *host.Host) {
	t.Helper()
	h := host.New(budget.NewDefault(), storage.New(nil), types.LedgerInfo{SequenceNumber: 1})
	e, err := NewEngine(context.Background(), h)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e, h
}

func TestValidateWasm(t *testing.T) {
	if err := ValidateWasm(emptyModule); err != nil {
		t.Fatalf("empty module: %v", err)
	}
	if err := ValidateWasm([]byte{1, 2, 3}); !types.IsError(err, types.ErrValue, types.CodeInvalidInput) {
		t.Fatalf("expected magic rejection, got %v", err)
	}
	withFloat := append(append([]byte(nil), emptyModule...), 0x43)
	if err := ValidateWasm(withFloat); !types.IsError(err, types.ErrValue, types.CodeInvalidInput) {
		t.Fatalf("expected float rejection, got %v", err)
	}
}

func TestInstantiateChargesByWasmLength(t *testing.T) {
	e, h := newTestEngine(t)
	wasmHash := encoding.HashWasm(emptyModule)
	var cid types.Hash
	cid[0] = 1

	if _, err := e.Instantiate(cid, wasmHash, emptyModule); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	iters, input, err := h.Budget().Tracker(budget.VmInstantiation)
	if err != nil || iters != 1 || input == nil || *input != uint64(len(emptyModule)) {
		t.Fatalf("instantiation tracker: %d %v %v", iters, input, err)
	}
}

func TestInstantiateCachedRate(t *testing.T) {
	e, h := newTestEngine(t)
	wasmHash := encoding.HashWasm(emptyModule)
	var a, b types.Hash
	a[0], b[0] = 1, 2

	if _, err := e.Instantiate(a, wasmHash, emptyModule); err != nil {
		t.Fatalf("first instantiate: %v", err)
	}
	if _, err := e.Instantiate(b, wasmHash, emptyModule); err != nil {
		t.Fatalf("second instantiate: %v", err)
	}
	iters, _, err := h.Budget().Tracker(budget.VmCachedInstantiation)
	if err != nil || iters != 1 {
		t.Fatalf("cached instantiation tracker: %d %v", iters, err)
	}
}

func TestInstantiateOverBudget(t *testing.T) {
	e, h := newTestEngine(t)
	if err := h.Budget().ResetLimits(1000, 1000); err != nil {
		t.Fatalf("reset: %v", err)
	}
	wasmHash := encoding.HashWasm(emptyModule)
	var cid types.Hash
	_, err := e.Instantiate(cid, wasmHash, emptyModule)
	if !types.IsError(err, types.ErrBudget, types.CodeExceededLimit) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
}

func TestInvokeMissingExport(t *testing.T) {
	e, h := newTestEngine(t)
	wasmHash := encoding.HashWasm(emptyModule)
	var cid types.Hash
	vm, err := e.Instantiate(cid, wasmHash, emptyModule)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	_, err = vm.Invoke("handle")
	if !types.IsError(err, types.ErrValue, types.CodeMissingValue) {
		t.Fatalf("expected missing export, got %v", err)
	}
	// The invocation itself was still metered.
	iters, _, err := h.Budget().Tracker(budget.InvokeVmFunction)
	if err != nil || iters != 1 {
		t.Fatalf("invoke tracker: %d %v", iters, err)
	}
	// Depth was balanced on the way out.
	if err := h.Budget().Enter(); err != nil {
		t.Fatalf("depth not restored: %v", err)
	}
	_ = h.Budget().Leave()
}

func TestInvokePreChargesFuel(t *testing.T) {
	e, h := newTestEngine(t)
	wasmHash := encoding.HashWasm(emptyModule)
	var cid types.Hash
	vm, err := e.Instantiate(cid, wasmHash, emptyModule)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	_, _ = vm.Invoke("handle")
	iters, _, err := h.Budget().Tracker(budget.WasmInsnExec)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	// call offset + base per estimated instruction, at the default fuel
	// schedule (base=1, call=41).
	if want := uint64(41 + len(emptyModule)); iters != want {
		t.Fatalf("fuel charged: got %d want %d", iters, want)
	}
}
