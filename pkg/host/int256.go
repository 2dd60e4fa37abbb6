package host

import (
	"github.com/holiman/uint256"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// 256-bit arithmetic builtins. The operations themselves are delegated to
// the fixed-width integer library; this layer is the metering envelope.

func (h *Host) U256Add(x, y *uint256.Int) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256AddSub, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Add(x, y), nil
}

func (h *Host) U256Sub(x, y *uint256.Int) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256AddSub, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Sub(x, y), nil
}

func (h *Host) U256Mul(x, y *uint256.Int) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256Mul, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Mul(x, y), nil
}

func (h *Host) U256Div(x, y *uint256.Int) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256Div, nil); err != nil {
		return nil, err
	}
	if y.IsZero() {
		return nil, types.NewError(types.ErrValue, types.CodeArithDomain)
	}
	return new(uint256.Int).Div(x, y), nil
}

func (h *Host) U256Pow(x, y *uint256.Int) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256Pow, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Exp(x, y), nil
}

func (h *Host) U256Shl(x *uint256.Int, by uint) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256Shift, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Lsh(x, by), nil
}

func (h *Host) U256Shr(x *uint256.Int, by uint) (*uint256.Int, error) {
	if err := h.budget.Charge(budget.Int256Shift, nil); err != nil {
		return nil, err
	}
	return new(uint256.Int).Rsh(x, by), nil
}
