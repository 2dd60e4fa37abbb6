package host

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

const (
	contractHRP = "wc"
	accountHRP  = "wa"
)

// ContractAddress renders a contract id as a bech32 address.
func ContractAddress(contractID types.Hash) (string, error) {
	conv, err := bech32.ConvertBits(contractID[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32 convert: %w", err)
	}
	addr, err := bech32.Encode(contractHRP, conv)
	if err != nil {
		return "", fmt.Errorf("bech32 encode: %w", err)
	}
	return addr, nil
}

// ContractIDFromAddress decodes a bech32 address into a contract id.
// Account addresses are well-formed but not contracts, and are rejected as
// invalid input.
func (h *Host) ContractIDFromAddress(addr string) (types.Hash, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return types.Hash{}, fmt.Errorf("bech32 decode: %w", err)
	}
	if hrp == accountHRP {
		return types.Hash{}, fmt.Errorf("not a contract address: %w",
			types.NewError(types.ErrObject, types.CodeInvalidInput))
	}
	if hrp != contractHRP {
		return types.Hash{}, fmt.Errorf("invalid address hrp %q: %w", hrp,
			types.NewError(types.ErrObject, types.CodeInvalidInput))
	}
	out, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return types.Hash{}, fmt.Errorf("bech32 convert: %w", err)
	}
	var id types.Hash
	if len(out) != len(id) {
		return types.Hash{}, fmt.Errorf("invalid contract id length %d: %w", len(out),
			types.NewError(types.ErrObject, types.CodeInvalidInput))
	}
	copy(id[:], out)
	return h.meteredCloneHash(id)
}
