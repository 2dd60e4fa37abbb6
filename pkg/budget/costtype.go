package budget

import "fmt"

// CostType enumerates the metered operation categories. The ordinal of each
// value indexes the cost-model and counter tables and is part of the network
// consensus surface: never reorder or renumber these.
type CostType int

const (
	// WasmInsnExec is one fuel unit of wasm work. Constant.
	WasmInsnExec CostType = iota
	// WasmMemAlloc counts engine memory fuel. Constant.
	WasmMemAlloc
	// HostMemAlloc is linear in the number of bytes allocated.
	HostMemAlloc
	// HostMemCpy is linear in the number of bytes copied.
	HostMemCpy
	// HostMemCmp is linear in the number of bytes compared.
	HostMemCmp
	// DispatchHostFunction covers one host-function dispatch. Constant.
	DispatchHostFunction
	// VisitObject covers one host object table access. Constant.
	VisitObject
	// ValSer is linear in the output buffer bytes.
	ValSer
	// ValDeser is linear in the input buffer bytes.
	ValDeser
	// ComputeSha256Hash is linear in the bytes hashed.
	ComputeSha256Hash
	// ComputeEd25519PubKey covers one key decompression. Constant.
	ComputeEd25519PubKey
	// MapEntry covers one ordered-map entry access. Constant.
	MapEntry
	// VecEntry covers one vector entry access. Constant.
	VecEntry
	// VerifyEd25519Sig is linear in the signed message bytes.
	VerifyEd25519Sig
	// VmMemRead is linear in the bytes read from vm linear memory.
	VmMemRead
	// VmMemWrite is linear in the bytes written to vm linear memory.
	VmMemWrite
	// VmInstantiation is linear in the wasm bytes instantiated.
	VmInstantiation
	// VmCachedInstantiation is linear in the wasm bytes, cached module path.
	VmCachedInstantiation
	// InvokeVmFunction covers one vm function invocation. Constant.
	InvokeVmFunction
	// ComputeKeccak256Hash is linear in the bytes hashed.
	ComputeKeccak256Hash
	// ComputeEcdsaSecp256k1Key covers one key parse. Constant.
	ComputeEcdsaSecp256k1Key
	// ComputeEcdsaSecp256k1Sig covers one signature parse. Constant.
	ComputeEcdsaSecp256k1Sig
	// RecoverEcdsaSecp256k1Key covers one public key recovery. Constant.
	RecoverEcdsaSecp256k1Key
	// Int256AddSub covers one 256-bit add or subtract. Constant.
	Int256AddSub
	// Int256Mul covers one 256-bit multiply. Constant.
	Int256Mul
	// Int256Div covers one 256-bit divide. Constant.
	Int256Div
	// Int256Pow covers one 256-bit exponentiation. Constant.
	Int256Pow
	// Int256Shift covers one 256-bit shift. Constant.
	Int256Shift

	// NumCostTypes is the number of CostType values.
	NumCostTypes = int(Int256Shift) + 1
)

var costTypeNames = [NumCostTypes]string{
	WasmInsnExec:             "WasmInsnExec",
	WasmMemAlloc:             "WasmMemAlloc",
	HostMemAlloc:             "HostMemAlloc",
	HostMemCpy:               "HostMemCpy",
	HostMemCmp:               "HostMemCmp",
	DispatchHostFunction:     "DispatchHostFunction",
	VisitObject:              "VisitObject",
	ValSer:                   "ValSer",
	ValDeser:                 "ValDeser",
	ComputeSha256Hash:        "ComputeSha256Hash",
	ComputeEd25519PubKey:     "ComputeEd25519PubKey",
	MapEntry:                 "MapEntry",
	VecEntry:                 "VecEntry",
	VerifyEd25519Sig:         "VerifyEd25519Sig",
	VmMemRead:                "VmMemRead",
	VmMemWrite:               "VmMemWrite",
	VmInstantiation:          "VmInstantiation",
	VmCachedInstantiation:    "VmCachedInstantiation",
	InvokeVmFunction:         "InvokeVmFunction",
	ComputeKeccak256Hash:     "ComputeKeccak256Hash",
	ComputeEcdsaSecp256k1Key: "ComputeEcdsaSecp256k1Key",
	ComputeEcdsaSecp256k1Sig: "ComputeEcdsaSecp256k1Sig",
	RecoverEcdsaSecp256k1Key: "RecoverEcdsaSecp256k1Key",
	Int256AddSub:             "Int256AddSub",
	Int256Mul:                "Int256Mul",
	Int256Div:                "Int256Div",
	Int256Pow:                "Int256Pow",
	Int256Shift:              "Int256Shift",
}

func (ct CostType) String() string {
	if ct < 0 || int(ct) >= NumCostTypes {
		return fmt.Sprintf("CostType(%d)", int(ct))
	}
	return costTypeNames[ct]
}

// HasInput reports whether the cost type's model is linear in a runtime
// input. Constant-cost types take a nil input; linear types take the input
// named in the CostType doc comment. The assignment is fixed per cost type
// and seeds the meter tracker at construction.
func (ct CostType) HasInput() bool {
	switch ct {
	case HostMemAlloc, HostMemCpy, HostMemCmp,
		ValSer, ValDeser,
		ComputeSha256Hash, ComputeKeccak256Hash, VerifyEd25519Sig,
		VmMemRead, VmMemWrite,
		VmInstantiation, VmCachedInstantiation:
		return true
	default:
		return false
	}
}

// Input wraps a runtime input value for a linear cost type. Constant cost
// types are charged with a nil input.
func Input(v uint64) *uint64 {
	return &v
}
