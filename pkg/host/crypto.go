package host

import (
	"crypto/ed25519"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/encoding"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// Sha256Hash computes SHA-256 under metering.
func (h *Host) Sha256Hash(data []byte) (types.Hash, error) {
	if err := h.budget.Charge(budget.ComputeSha256Hash, budget.Input(uint64(len(data)))); err != nil {
		return types.Hash{}, err
	}
	return encoding.HashBytes(data), nil
}

// Keccak256Hash computes legacy Keccak-256 under metering.
func (h *Host) Keccak256Hash(data []byte) (types.Hash, error) {
	if err := h.budget.Charge(budget.ComputeKeccak256Hash, budget.Input(uint64(len(data)))); err != nil {
		return types.Hash{}, err
	}
	return encoding.Keccak256(data), nil
}

// Ed25519PubKey validates an ed25519 public key under metering.
func (h *Host) Ed25519PubKey(raw []byte) (ed25519.PublicKey, error) {
	if err := h.budget.Charge(budget.ComputeEd25519PubKey, nil); err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length %d: %w", len(raw),
			types.NewError(types.ErrCrypto, types.CodeInvalidInput))
	}
	return ed25519.PublicKey(append([]byte(nil), raw...)), nil
}

// VerifyEd25519Sig verifies a signature under metering, charging by message
// length.
func (h *Host) VerifyEd25519Sig(pub ed25519.PublicKey, msg, sig []byte) error {
	if err := h.budget.Charge(budget.VerifyEd25519Sig, budget.Input(uint64(len(msg)))); err != nil {
		return err
	}
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize || !ed25519.Verify(pub, msg, sig) {
		return fmt.Errorf("ed25519 signature verification failed: %w",
			types.NewError(types.ErrCrypto, types.CodeInvalidInput))
	}
	return nil
}

// Secp256k1PubKey parses a compressed or uncompressed secp256k1 public key
// under metering.
func (h *Host) Secp256k1PubKey(raw []byte) (*secp256k1.PublicKey, error) {
	if err := h.budget.Charge(budget.ComputeEcdsaSecp256k1Key, nil); err != nil {
		return nil, err
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parse secp256k1 public key: %w",
			types.NewError(types.ErrCrypto, types.CodeInvalidInput))
	}
	return pub, nil
}

// Secp256k1Signature parses a DER-encoded ECDSA signature under metering.
func (h *Host) Secp256k1Signature(der []byte) (*secpecdsa.Signature, error) {
	if err := h.budget.Charge(budget.ComputeEcdsaSecp256k1Sig, nil); err != nil {
		return nil, err
	}
	sig, err := secpecdsa.ParseDERSignature(der)
	if err != nil {
		return nil, fmt.Errorf("parse secp256k1 signature: %w",
			types.NewError(types.ErrCrypto, types.CodeInvalidInput))
	}
	return sig, nil
}

// RecoverSecp256k1Key recovers the signing public key from a compact
// signature over a message hash, under metering.
func (h *Host) RecoverSecp256k1Key(msgHash types.Hash, compactSig []byte) (*secp256k1.PublicKey, error) {
	if err := h.budget.Charge(budget.RecoverEcdsaSecp256k1Key, nil); err != nil {
		return nil, err
	}
	pub, _, err := secpecdsa.RecoverCompact(compactSig, msgHash[:])
	if err != nil {
		return nil, fmt.Errorf("recover secp256k1 key: %w",
			types.NewError(types.ErrCrypto, types.CodeInvalidInput))
	}
	return pub, nil
}
