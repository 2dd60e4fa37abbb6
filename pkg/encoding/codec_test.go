package encoding

import (
	"bytes"
	"testing"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

func TestLedgerKeyDeterministic(t *testing.T) {
	var id types.Hash
	id[0] = 0x42
	key := &types.LedgerKey{
		Kind:       types.KeyContractInstance,
		ContractID: id,
		Durability: types.DurabilityPersistent,
	}
	a, err := MarshalLedgerKey(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := MarshalLedgerKey(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding not deterministic")
	}
	back, err := UnmarshalLedgerKey(a)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *back != *key {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestLedgerEntryRoundTrip(t *testing.T) {
	var id, wasmHash types.Hash
	id[0], wasmHash[0] = 1, 2
	entry := &types.LedgerEntry{
		LastModifiedLedgerSeq: 77,
		Kind:                  types.EntryContractData,
		ContractData: &types.ContractDataEntry{
			ContractID: id,
			Durability: types.DurabilityPersistent,
			Val: &types.ContractInstance{
				Executable: types.WasmExecutable(wasmHash),
				Storage: []types.InstanceStorageEntry{
					{Key: []byte("owner"), Val: []byte("acct1")},
					{Key: []byte("paused"), Val: []byte{1}},
				},
			},
		},
	}
	b, err := MarshalLedgerEntry(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalLedgerEntry(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.LastModifiedLedgerSeq != 77 || back.Kind != types.EntryContractData {
		t.Fatalf("header mismatch")
	}
	inst := back.ContractData.Val
	if inst == nil || inst.Executable.WasmHash != wasmHash || len(inst.Storage) != 2 {
		t.Fatalf("instance mismatch: %+v", inst)
	}
	if !bytes.Equal(inst.Storage[1].Key, []byte("paused")) {
		t.Fatalf("storage order not preserved")
	}
}

func TestContractCodeEntryRoundTrip(t *testing.T) {
	var wasmHash types.Hash
	wasmHash[31] = 9
	entry := &types.LedgerEntry{
		Kind: types.EntryContractCode,
		ContractCode: &types.ContractCodeEntry{
			WasmHash: wasmHash,
			Code:     []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		},
	}
	b, err := MarshalLedgerEntry(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalLedgerEntry(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ContractCode == nil || !bytes.Equal(back.ContractCode.Code, entry.ContractCode.Code) {
		t.Fatalf("code mismatch")
	}
}

func TestHashes(t *testing.T) {
	if HashBytes(nil).String() != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("sha256 of empty input wrong")
	}
	if Keccak256(nil).String() != "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470" {
		t.Fatalf("keccak256 of empty input wrong")
	}
}
