package budget

// defaultCostParams is the calibrated default cost schedule, one (cpu, mem)
// model pair per CostType. The values are part of the network consensus
// surface and must match the network configuration defaults exactly.
//
// WasmInsnExec's cpu constant is the host cpu cost per wasm fuel; its mem
// cost is zero by definition. WasmMemAlloc is the converse: one byte per
// engine memory fuel on the mem side, zero cpu.
var defaultCostParams = [NumCostTypes]struct {
	cpu CostModel
	mem CostModel
}{
	WasmInsnExec:             {cpu: CostModel{ConstTerm: 6}, mem: CostModel{}},
	WasmMemAlloc:             {cpu: CostModel{}, mem: CostModel{ConstTerm: 1}},
	HostMemAlloc:             {cpu: CostModel{ConstTerm: 1141, LinTerm: 1}, mem: CostModel{ConstTerm: 16, LinTerm: 128}},
	HostMemCpy:               {cpu: CostModel{ConstTerm: 39, LinTerm: 24}, mem: CostModel{}},
	HostMemCmp:               {cpu: CostModel{ConstTerm: 20, LinTerm: 64}, mem: CostModel{}},
	DispatchHostFunction:     {cpu: CostModel{ConstTerm: 263}, mem: CostModel{}},
	VisitObject:              {cpu: CostModel{ConstTerm: 108}, mem: CostModel{}},
	ValSer:                   {cpu: CostModel{ConstTerm: 591, LinTerm: 69}, mem: CostModel{ConstTerm: 18, LinTerm: 384}},
	ValDeser:                 {cpu: CostModel{ConstTerm: 1112, LinTerm: 34}, mem: CostModel{ConstTerm: 16, LinTerm: 128}},
	ComputeSha256Hash:        {cpu: CostModel{ConstTerm: 2924, LinTerm: 4149}, mem: CostModel{ConstTerm: 40}},
	ComputeEd25519PubKey:     {cpu: CostModel{ConstTerm: 25584}, mem: CostModel{}},
	MapEntry:                 {cpu: CostModel{ConstTerm: 53}, mem: CostModel{}},
	VecEntry:                 {cpu: CostModel{}, mem: CostModel{}},
	VerifyEd25519Sig:         {cpu: CostModel{ConstTerm: 376877, LinTerm: 2747}, mem: CostModel{}},
	VmMemRead:                {cpu: CostModel{ConstTerm: 182, LinTerm: 24}, mem: CostModel{}},
	VmMemWrite:               {cpu: CostModel{ConstTerm: 182, LinTerm: 24}, mem: CostModel{}},
	VmInstantiation:          {cpu: CostModel{ConstTerm: 967154, LinTerm: 69991}, mem: CostModel{ConstTerm: 131103, LinTerm: 5080}},
	VmCachedInstantiation:    {cpu: CostModel{ConstTerm: 967154, LinTerm: 69991}, mem: CostModel{ConstTerm: 131103, LinTerm: 5080}},
	InvokeVmFunction:         {cpu: CostModel{ConstTerm: 1125}, mem: CostModel{ConstTerm: 14}},
	ComputeKeccak256Hash:     {cpu: CostModel{ConstTerm: 2890, LinTerm: 3561}, mem: CostModel{ConstTerm: 40}},
	ComputeEcdsaSecp256k1Key: {cpu: CostModel{ConstTerm: 38363}, mem: CostModel{}},
	ComputeEcdsaSecp256k1Sig: {cpu: CostModel{ConstTerm: 224}, mem: CostModel{}},
	RecoverEcdsaSecp256k1Key: {cpu: CostModel{ConstTerm: 1666155}, mem: CostModel{ConstTerm: 201}},
	Int256AddSub:             {cpu: CostModel{ConstTerm: 1716}, mem: CostModel{ConstTerm: 119}},
	Int256Mul:                {cpu: CostModel{ConstTerm: 2226}, mem: CostModel{ConstTerm: 119}},
	Int256Div:                {cpu: CostModel{ConstTerm: 2333}, mem: CostModel{ConstTerm: 119}},
	Int256Pow:                {cpu: CostModel{ConstTerm: 5212}, mem: CostModel{ConstTerm: 119}},
	Int256Shift:              {cpu: CostModel{ConstTerm: 412}, mem: CostModel{ConstTerm: 119}},
}

// DefaultCostParams returns the default schedule as the signed
// configuration shape, for writing out network config files.
func DefaultCostParams() (cpu, mem CostParams) {
	cpu = make(CostParams, NumCostTypes)
	mem = make(CostParams, NumCostTypes)
	for i, p := range defaultCostParams {
		cpu[i] = CostParamEntry{ConstTerm: int64(p.cpu.ConstTerm), LinearTerm: int64(p.cpu.LinTerm)}
		mem[i] = CostParamEntry{ConstTerm: int64(p.mem.ConstTerm), LinearTerm: int64(p.mem.LinTerm)}
	}
	return cpu, mem
}
