package encoding

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// MarshalLedgerKey deterministically encodes a LedgerKey in protobuf wire
// format. The encoding doubles as the ordering key of the storage map, so
// field order is fixed.
func MarshalLedgerKey(key *types.LedgerKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("ledger key is nil")
	}
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(key.Kind))
	switch key.Kind {
	case types.KeyContractInstance:
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, key.ContractID[:])
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(key.Durability))
	case types.KeyContractCode:
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, key.WasmHash[:])
	default:
		return nil, fmt.Errorf("unknown ledger key kind: %d", key.Kind)
	}
	return b, nil
}

// UnmarshalLedgerKey decodes a LedgerKey from protobuf wire format.
func UnmarshalLedgerKey(b []byte) (*types.LedgerKey, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty ledger key")
	}
	var key types.LedgerKey
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid ledger key tag")
		}
		b = b[n:]
		switch num {
		case 1:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid ledger key kind")
			}
			key.Kind = types.LedgerKeyKind(v)
			b = b[n:]
		case 2:
			v, n := consumeHash(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract id")
			}
			key.ContractID = v
			b = b[n:]
		case 3:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid durability")
			}
			key.Durability = types.Durability(v)
			b = b[n:]
		case 4:
			v, n := consumeHash(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid wasm hash")
			}
			key.WasmHash = v
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid ledger key field %d", num)
			}
			b = b[n:]
		}
	}
	return &key, nil
}

// MarshalContractInstance deterministically encodes a ContractInstance.
func MarshalContractInstance(inst *types.ContractInstance) ([]byte, error) {
	if inst == nil {
		return nil, fmt.Errorf("contract instance is nil")
	}
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(inst.Executable.Kind))
	if inst.Executable.Kind == types.ExecutableWasm {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, inst.Executable.WasmHash[:])
	}
	for _, entry := range inst.Storage {
		var kv []byte
		kv = protowire.AppendTag(kv, 1, protowire.BytesType)
		kv = protowire.AppendBytes(kv, entry.Key)
		kv = protowire.AppendTag(kv, 2, protowire.BytesType)
		kv = protowire.AppendBytes(kv, entry.Val)
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, kv)
	}
	return b, nil
}

// UnmarshalContractInstance decodes a ContractInstance.
func UnmarshalContractInstance(b []byte) (*types.ContractInstance, error) {
	var inst types.ContractInstance
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid contract instance tag")
		}
		b = b[n:]
		switch num {
		case 1:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid executable kind")
			}
			inst.Executable.Kind = types.ExecutableKind(v)
			b = b[n:]
		case 2:
			v, n := consumeHash(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid executable wasm hash")
			}
			inst.Executable.WasmHash = v
			b = b[n:]
		case 3:
			if typ != protowire.BytesType {
				return nil, fmt.Errorf("invalid storage entry type")
			}
			kv, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("invalid storage entry")
			}
			entry, err := unmarshalStorageEntry(kv)
			if err != nil {
				return nil, err
			}
			inst.Storage = append(inst.Storage, entry)
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract instance field %d", num)
			}
			b = b[n:]
		}
	}
	return &inst, nil
}

func unmarshalStorageEntry(b []byte) (types.InstanceStorageEntry, error) {
	var entry types.InstanceStorageEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return entry, fmt.Errorf("invalid storage entry tag")
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return entry, fmt.Errorf("invalid storage entry field type")
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return entry, fmt.Errorf("invalid storage entry field")
		}
		switch num {
		case 1:
			entry.Key = append([]byte(nil), v...)
		case 2:
			entry.Val = append([]byte(nil), v...)
		}
		b = b[n:]
	}
	return entry, nil
}

// MarshalLedgerEntry deterministically encodes a LedgerEntry.
func MarshalLedgerEntry(entry *types.LedgerEntry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("ledger entry is nil")
	}
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(entry.LastModifiedLedgerSeq))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(entry.Kind))
	switch entry.Kind {
	case types.EntryContractData:
		if entry.ContractData == nil {
			return nil, fmt.Errorf("contract data entry is nil")
		}
		var d []byte
		d = protowire.AppendTag(d, 1, protowire.BytesType)
		d = protowire.AppendBytes(d, entry.ContractData.ContractID[:])
		d = protowire.AppendTag(d, 2, protowire.VarintType)
		d = protowire.AppendVarint(d, uint64(entry.ContractData.Durability))
		if entry.ContractData.Val != nil {
			inst, err := MarshalContractInstance(entry.ContractData.Val)
			if err != nil {
				return nil, err
			}
			d = protowire.AppendTag(d, 3, protowire.BytesType)
			d = protowire.AppendBytes(d, inst)
		}
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	case types.EntryContractCode:
		if entry.ContractCode == nil {
			return nil, fmt.Errorf("contract code entry is nil")
		}
		var c []byte
		c = protowire.AppendTag(c, 1, protowire.BytesType)
		c = protowire.AppendBytes(c, entry.ContractCode.WasmHash[:])
		c = protowire.AppendTag(c, 2, protowire.BytesType)
		c = protowire.AppendBytes(c, entry.ContractCode.Code)
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, c)
	default:
		return nil, fmt.Errorf("unknown ledger entry kind: %d", entry.Kind)
	}
	return b, nil
}

// UnmarshalLedgerEntry decodes a LedgerEntry.
func UnmarshalLedgerEntry(b []byte) (*types.LedgerEntry, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty ledger entry")
	}
	var entry types.LedgerEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid ledger entry tag")
		}
		b = b[n:]
		switch num {
		case 1:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid last modified seq")
			}
			entry.LastModifiedLedgerSeq = uint32(v)
			b = b[n:]
		case 2:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid ledger entry kind")
			}
			entry.Kind = types.LedgerEntryKind(v)
			b = b[n:]
		case 3:
			if typ != protowire.BytesType {
				return nil, fmt.Errorf("invalid contract data type")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract data")
			}
			data, err := unmarshalContractData(v)
			if err != nil {
				return nil, err
			}
			entry.ContractData = data
			b = b[n:]
		case 4:
			if typ != protowire.BytesType {
				return nil, fmt.Errorf("invalid contract code type")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract code")
			}
			code, err := unmarshalContractCode(v)
			if err != nil {
				return nil, err
			}
			entry.ContractCode = code
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid ledger entry field %d", num)
			}
			b = b[n:]
		}
	}
	return &entry, nil
}

func unmarshalContractData(b []byte) (*types.ContractDataEntry, error) {
	var data types.ContractDataEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid contract data tag")
		}
		b = b[n:]
		switch num {
		case 1:
			v, n := consumeHash(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract data id")
			}
			data.ContractID = v
			b = b[n:]
		case 2:
			v, n := consumeVarint(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract data durability")
			}
			data.Durability = types.Durability(v)
			b = b[n:]
		case 3:
			if typ != protowire.BytesType {
				return nil, fmt.Errorf("invalid contract data val type")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract data val")
			}
			inst, err := UnmarshalContractInstance(v)
			if err != nil {
				return nil, err
			}
			data.Val = inst
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract data field %d", num)
			}
			b = b[n:]
		}
	}
	return &data, nil
}

func unmarshalContractCode(b []byte) (*types.ContractCodeEntry, error) {
	var code types.ContractCodeEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid contract code tag")
		}
		b = b[n:]
		switch num {
		case 1:
			v, n := consumeHash(b, typ)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract code hash")
			}
			code.WasmHash = v
			b = b[n:]
		case 2:
			if typ != protowire.BytesType {
				return nil, fmt.Errorf("invalid contract code bytes type")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract code bytes")
			}
			code.Code = append([]byte(nil), v...)
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("invalid contract code field %d", num)
			}
			b = b[n:]
		}
	}
	return &code, nil
}

func consumeVarint(b []byte, typ protowire.Type) (uint64, int) {
	if typ != protowire.VarintType {
		return 0, -1
	}
	return protowire.ConsumeVarint(b)
}

func consumeHash(b []byte, typ protowire.Type) (types.Hash, int) {
	var h types.Hash
	if typ != protowire.BytesType {
		return h, -1
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 || len(v) != len(h) {
		return h, -1
	}
	copy(h[:], v)
	return h, n
}
