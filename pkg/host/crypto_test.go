package host

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/holiman/uint256"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

func TestSha256Metered(t *testing.T) {
	h, _ := newTestHost(t)
	data := []byte("the quick brown fox")
	sum, err := h.Sha256Hash(data)
	if err != nil {
		t.Fatalf("sha256: %v", err)
	}
	if sum.IsZero() {
		t.Fatalf("zero digest")
	}
	cpu, _ := h.Budget().CPUInsnsConsumed()
	want := uint64(2924) + (uint64(4149)*uint64(len(data)))>>budget.CostModelScaleBits
	if cpu != want {
		t.Fatalf("cpu: got %d want %d", cpu, want)
	}
}

func TestKeccak256Metered(t *testing.T) {
	h, _ := newTestHost(t)
	sum, err := h.Keccak256Hash(nil)
	if err != nil {
		t.Fatalf("keccak: %v", err)
	}
	// Keccak-256 of the empty string, the legacy (pre-SHA3) padding.
	if sum.String() != "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470" {
		t.Fatalf("unexpected digest %s", sum)
	}
}

func TestEd25519Envelope(t *testing.T) {
	h, _ := newTestHost(t)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parsed, err := h.Ed25519PubKey(pub)
	if err != nil {
		t.Fatalf("pub key: %v", err)
	}
	msg := []byte("authorize invocation 42")
	sig := ed25519.Sign(priv, msg)
	if err := h.VerifyEd25519Sig(parsed, msg, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
	sig[0] ^= 1
	if err := h.VerifyEd25519Sig(parsed, msg, sig); !types.IsError(err, types.ErrCrypto, types.CodeInvalidInput) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if _, err := h.Ed25519PubKey(pub[:31]); !types.IsError(err, types.ErrCrypto, types.CodeInvalidInput) {
		t.Fatalf("expected short key rejection, got %v", err)
	}
}

func TestU256Envelope(t *testing.T) {
	h, _ := newTestHost(t)
	x := uint256.NewInt(40)
	y := uint256.NewInt(2)

	sum, err := h.U256Add(x, y)
	if err != nil || sum.Uint64() != 42 {
		t.Fatalf("add: %v %v", sum, err)
	}
	prod, err := h.U256Mul(x, y)
	if err != nil || prod.Uint64() != 80 {
		t.Fatalf("mul: %v %v", prod, err)
	}
	quot, err := h.U256Div(x, y)
	if err != nil || quot.Uint64() != 20 {
		t.Fatalf("div: %v %v", quot, err)
	}
	if _, err := h.U256Div(x, uint256.NewInt(0)); !types.IsError(err, types.ErrValue, types.CodeArithDomain) {
		t.Fatalf("expected arith domain, got %v", err)
	}
	pow, err := h.U256Pow(y, uint256.NewInt(10))
	if err != nil || pow.Uint64() != 1024 {
		t.Fatalf("pow: %v %v", pow, err)
	}
	shl, err := h.U256Shl(y, 3)
	if err != nil || shl.Uint64() != 16 {
		t.Fatalf("shl: %v %v", shl, err)
	}

	// Each operation charges its constant on both dimensions.
	cpu, _ := h.Budget().CPUInsnsConsumed()
	want := uint64(1716 + 2226 + 2333 + 2333 + 5212 + 412)
	if cpu != want {
		t.Fatalf("cpu: got %d want %d", cpu, want)
	}
	mem, _ := h.Budget().MemBytesConsumed()
	if mem != 6*119 {
		t.Fatalf("mem: got %d want %d", mem, 6*119)
	}
}

func TestSerializationEnvelope(t *testing.T) {
	h, _ := newTestHost(t)
	entry := &types.LedgerEntry{
		Kind: types.EntryContractData,
		ContractData: &types.ContractDataEntry{
			ContractID: contractID(8),
			Durability: types.DurabilityPersistent,
			Val:        &types.ContractInstance{Executable: types.TokenExecutable()},
		},
	}
	out, err := h.SerializeEntry(entry)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	iters, input, err := h.Budget().Tracker(budget.ValSer)
	if err != nil || iters != 1 || input == nil || *input != uint64(len(out)) {
		t.Fatalf("ser tracker: %d %v %v", iters, input, err)
	}
	back, err := h.DeserializeEntry(out)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if back.Kind != entry.Kind || back.ContractData.ContractID != entry.ContractData.ContractID {
		t.Fatalf("round trip mismatch")
	}
	if back.ContractData.Val == nil || back.ContractData.Val.Executable.Kind != types.ExecutableToken {
		t.Fatalf("instance lost in round trip")
	}
}

func TestContractAddressRoundTrip(t *testing.T) {
	h, _ := newTestHost(t)
	cid := contractID(0x5A)
	addr, err := ContractAddress(cid)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	back, err := h.ContractIDFromAddress(addr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != cid {
		t.Fatalf("round trip mismatch")
	}

	// A well-formed account address is not a contract.
	conv, err := bech32.ConvertBits(cid[:], 8, 5, true)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	acctAddr, err := bech32.Encode(accountHRP, conv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := h.ContractIDFromAddress(acctAddr); !types.IsError(err, types.ErrObject, types.CodeInvalidInput) {
		t.Fatalf("expected non-contract rejection, got %v", err)
	}
}
