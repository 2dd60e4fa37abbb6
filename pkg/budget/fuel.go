package budget

// FuelConfig is the subset of the engine's fuel schedule that the host
// configures. The fields coarsely define the relative costs of wasm
// instruction classes; units are in fuels.
type FuelConfig struct {
	// Base is the fuel cost common to all instructions.
	Base uint64 `json:"base"`
	// Entity is the fuel cost for instructions operating on wasm entities
	// (func, global, memory, table), which need extra indirect accesses
	// through the instance and store.
	Entity uint64 `json:"entity"`
	// Load is the fuel cost offset for memory load instructions.
	Load uint64 `json:"load"`
	// Store is the fuel cost offset for memory store instructions.
	Store uint64 `json:"store"`
	// Call is the fuel cost offset for call and call_indirect.
	Call uint64 `json:"call"`
}

// DefaultFuelConfig returns the calibrated fuel schedule.
func DefaultFuelConfig() FuelConfig {
	return FuelConfig{
		Base:   1,
		Entity: 2,
		Load:   1,
		Store:  1,
		Call:   41,
	}
}
