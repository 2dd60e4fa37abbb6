package budget

import (
	"math"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// CostModelScaleBits is the number of bits the linear term is scaled by.
// The linear coefficient is scaled up by this factor during parameter
// fitting to retain significant digits, so evaluating a model scales the
// linear product back down by the same factor.
const CostModelScaleBits = 7

// ScaledU64 is a u64 magnitude carrying an implicit scale of
// 2^CostModelScaleBits.
type ScaledU64 uint64

// Unscale shifts the scaled value back down to its logical magnitude.
func (s ScaledU64) Unscale() uint64 {
	return uint64(s) >> CostModelScaleBits
}

// ScaledFromUnscaled scales an unscaled value up.
func ScaledFromUnscaled(v uint64) ScaledU64 {
	return ScaledU64(v << CostModelScaleBits)
}

func (s ScaledU64) IsZero() bool {
	return s == 0
}

// SaturatingMul multiplies by rhs, saturating at the maximum value.
func (s ScaledU64) SaturatingMul(rhs uint64) ScaledU64 {
	return ScaledU64(saturatingMul(uint64(s), rhs))
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}

// CostModel evaluates the linear expression
//
//	f(x) = ConstTerm + LinTerm * x
//
// where x is an optional runtime input. A nil input means the cost is
// constant and only ConstTerm applies. All arithmetic saturates at the
// maximum u64; it never wraps.
type CostModel struct {
	ConstTerm uint64
	LinTerm   ScaledU64
}

// Evaluate returns the model output for the given input. A zero linear term
// short-circuits, so a constant model evaluated with a non-nil input yields
// exactly ConstTerm.
func (m CostModel) Evaluate(input *uint64) uint64 {
	if input == nil {
		return m.ConstTerm
	}
	res := m.ConstTerm
	if !m.LinTerm.IsZero() {
		res = saturatingAdd(res, m.LinTerm.SaturatingMul(*input).Unscale())
	}
	return res
}

// CostParamEntry is one configured (const, linear) pair of an on-chain cost
// schedule. Terms are carried signed so that malformed network
// configuration is rejected rather than silently reinterpreted.
type CostParamEntry struct {
	ConstTerm  int64 `json:"const_term"`
	LinearTerm int64 `json:"linear_term"`
}

// CostParams is an ordered cost schedule; the position of each entry is the
// CostType ordinal it configures.
type CostParams []CostParamEntry

func modelFromParamEntry(entry CostParamEntry) (CostModel, error) {
	if entry.ConstTerm < 0 || entry.LinearTerm < 0 {
		return CostModel{}, types.NewError(types.ErrContext, types.CodeInvalidInput)
	}
	return CostModel{
		ConstTerm: uint64(entry.ConstTerm),
		LinTerm:   ScaledU64(entry.LinearTerm),
	}, nil
}
