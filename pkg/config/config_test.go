package config

import (
	"path/filepath"
	"testing"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

func TestDefaultBudget(t *testing.T) {
	cfg := Default()
	b, err := cfg.Budget()
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	rem, err := b.CPUInsnsRemaining()
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if rem != budget.DefaultCPUInsnLimit {
		t.Fatalf("cpu limit: got %d", rem)
	}
	// The configured schedule matches the calibrated defaults.
	if err := b.Charge(budget.HostMemCpy, budget.Input(100)); err != nil {
		t.Fatalf("charge: %v", err)
	}
	cpu, _ := b.CPUInsnsConsumed()
	if cpu != 57 {
		t.Fatalf("schedule mismatch: cpu %d", cpu)
	}
}

func TestRejectsNegativeTerm(t *testing.T) {
	cfg := Default()
	cfg.MemCostParams[int(budget.HostMemAlloc)].LinearTerm = -5
	_, err := cfg.Budget()
	if !types.IsError(err, types.ErrContext, types.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.json")
	cfg := Default()
	cfg.CPUInsnLimit = 42_000_000
	cfg.Fuel.Call = 50
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CPUInsnLimit != 42_000_000 || loaded.Fuel.Call != 50 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.CPUCostParams) != budget.NumCostTypes {
		t.Fatalf("schedule length: %d", len(loaded.CPUCostParams))
	}
	b, err := loaded.Budget()
	if err != nil {
		t.Fatalf("budget from loaded config: %v", err)
	}
	fuel, err := b.FuelCosts()
	if err != nil || fuel.Call != 50 {
		t.Fatalf("fuel not applied: %+v %v", fuel, err)
	}
}
