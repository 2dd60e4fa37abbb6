// Package config carries the network configuration the budget is
// initialized from: the per-dimension cost schedules, resource limits, the
// engine fuel schedule, and the host depth limit.
package config

import (
	"github.com/aetheriaxai/wasmhost/pkg/budget"
)

// Config mirrors the on-chain network configuration settings relevant to
// contract execution.
type Config struct {
	CPUInsnLimit  uint64            `json:"cpu_insn_limit"`
	MemBytesLimit uint64            `json:"mem_bytes_limit"`
	DepthLimit    uint32            `json:"depth_limit"`
	CPUCostParams budget.CostParams `json:"cpu_cost_params"`
	MemCostParams budget.CostParams `json:"mem_cost_params"`
	Fuel          budget.FuelConfig `json:"fuel"`
}

// Default returns the calibrated defaults.
func Default() *Config {
	cpu, mem := budget.DefaultCostParams()
	return &Config{
		CPUInsnLimit:  budget.DefaultCPUInsnLimit,
		MemBytesLimit: budget.DefaultMemBytesLimit,
		DepthLimit:    budget.DefaultHostDepthLimit,
		CPUCostParams: cpu,
		MemCostParams: mem,
		Fuel:          budget.DefaultFuelConfig(),
	}
}

// Budget constructs a budget from the configuration. Negative schedule
// terms are rejected.
func (c *Config) Budget() (*budget.Budget, error) {
	b, err := budget.FromConfigs(c.CPUInsnLimit, c.MemBytesLimit, c.CPUCostParams, c.MemCostParams)
	if err != nil {
		return nil, err
	}
	if err := b.SetFuelConfig(c.Fuel); err != nil {
		return nil, err
	}
	if err := b.SetDepthLimit(c.DepthLimit); err != nil {
		return nil, err
	}
	return b, nil
}
