package host

import (
	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/encoding"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// chargeAlloc prices allocating n bytes of host memory.
func (h *Host) chargeAlloc(n uint64) error {
	return h.budget.Charge(budget.HostMemAlloc, budget.Input(n))
}

// chargeClone prices allocating and copying n bytes of host memory, the
// cost of moving a byte buffer across the trust boundary.
func (h *Host) chargeClone(n uint64) error {
	if err := h.chargeAlloc(n); err != nil {
		return err
	}
	return h.budget.Charge(budget.HostMemCpy, budget.Input(n))
}

// MeteredCloneBytes clones a byte slice under metering.
func (h *Host) MeteredCloneBytes(b []byte) ([]byte, error) {
	if err := h.chargeClone(uint64(len(b))); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// meteredCloneHash clones a hash under metering. The copy itself is a
// register-sized move; the charge keeps the boundary crossings priced
// uniformly.
func (h *Host) meteredCloneHash(v types.Hash) (types.Hash, error) {
	if err := h.chargeClone(uint64(len(v))); err != nil {
		return types.Hash{}, err
	}
	return v, nil
}

func instanceByteSize(inst *types.ContractInstance) uint64 {
	size := uint64(len(types.Hash{})) + 1
	for _, e := range inst.Storage {
		size += uint64(len(e.Key) + len(e.Val))
	}
	return size
}

// MeteredCloneInstance deep-copies a contract instance under metering.
func (h *Host) MeteredCloneInstance(inst *types.ContractInstance) (*types.ContractInstance, error) {
	if inst == nil {
		return nil, types.NewError(types.ErrValue, types.CodeMissingValue)
	}
	if err := h.chargeClone(instanceByteSize(inst)); err != nil {
		return nil, err
	}
	out := &types.ContractInstance{Executable: inst.Executable}
	if len(inst.Storage) > 0 {
		out.Storage = make([]types.InstanceStorageEntry, len(inst.Storage))
		for i, e := range inst.Storage {
			out.Storage[i] = types.InstanceStorageEntry{
				Key: append([]byte(nil), e.Key...),
				Val: append([]byte(nil), e.Val...),
			}
		}
	}
	return out, nil
}

// meteredCloneEntry deep-copies a ledger entry under metering, sized by its
// canonical encoding.
func (h *Host) meteredCloneEntry(entry *types.LedgerEntry) (*types.LedgerEntry, error) {
	eb, err := encoding.MarshalLedgerEntry(entry)
	if err != nil {
		return nil, types.NewError(types.ErrStorage, types.CodeInternalError)
	}
	if err := h.chargeClone(uint64(len(eb))); err != nil {
		return nil, err
	}
	out, err := encoding.UnmarshalLedgerEntry(eb)
	if err != nil {
		return nil, types.NewError(types.ErrStorage, types.CodeInternalError)
	}
	return out, nil
}

// meteredNewKey prices the heap allocation of a ledger key that will be
// shared by handle among the storage collaborators.
func (h *Host) meteredNewKey(key types.LedgerKey) (*types.LedgerKey, error) {
	if err := h.chargeAlloc(uint64(len(key.ContractID) + len(key.WasmHash) + 2)); err != nil {
		return nil, err
	}
	k := key
	return &k, nil
}

// SerializeEntry encodes a ledger entry for the wire, charging the
// serialization envelope by output size.
func (h *Host) SerializeEntry(entry *types.LedgerEntry) ([]byte, error) {
	out, err := encoding.MarshalLedgerEntry(entry)
	if err != nil {
		return nil, types.NewError(types.ErrValue, types.CodeInvalidInput)
	}
	if err := h.budget.Charge(budget.ValSer, budget.Input(uint64(len(out)))); err != nil {
		return nil, err
	}
	return out, nil
}

// DeserializeEntry decodes a ledger entry from the wire, charging the
// deserialization envelope by input size.
func (h *Host) DeserializeEntry(b []byte) (*types.LedgerEntry, error) {
	if err := h.budget.Charge(budget.ValDeser, budget.Input(uint64(len(b)))); err != nil {
		return nil, err
	}
	entry, err := encoding.UnmarshalLedgerEntry(b)
	if err != nil {
		return nil, types.NewError(types.ErrValue, types.CodeInvalidInput)
	}
	return entry, nil
}
