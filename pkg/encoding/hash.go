package encoding

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// HashBytes computes SHA-256 over input data.
func HashBytes(data []byte) types.Hash {
	sum := sha256.Sum256(data)
	return types.Hash(sum)
}

// Keccak256 computes the legacy Keccak-256 digest over input data.
func Keccak256(data []byte) types.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashWasm computes the canonical code hash of a wasm blob.
func HashWasm(code []byte) types.Hash {
	return HashBytes(code)
}
