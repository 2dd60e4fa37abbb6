package host

import (
	"fmt"

	"github.com/aetheriaxai/wasmhost/pkg/storage"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// ContractInstanceLedgerKey builds the persistent ContractData key
// addressing a contract's instance entry.
func (h *Host) ContractInstanceLedgerKey(contractID types.Hash) (*types.LedgerKey, error) {
	id, err := h.meteredCloneHash(contractID)
	if err != nil {
		return nil, err
	}
	return h.meteredNewKey(types.LedgerKey{
		Kind:       types.KeyContractInstance,
		ContractID: id,
		Durability: types.DurabilityPersistent,
	})
}

// ContractCodeLedgerKey builds the ContractCode key for a wasm hash.
func (h *Host) ContractCodeLedgerKey(wasmHash types.Hash) (*types.LedgerKey, error) {
	hash, err := h.meteredCloneHash(wasmHash)
	if err != nil {
		return nil, err
	}
	return h.meteredNewKey(types.LedgerKey{
		Kind:     types.KeyContractCode,
		WasmHash: hash,
	})
}

// RetrieveContractInstance fetches the instance entry at key. Retrieval
// from storage is metered; unpacking the entry is free, but the instance is
// cloned under metering before it crosses to the caller.
func (h *Host) RetrieveContractInstance(key *types.LedgerKey) (*types.ContractInstance, error) {
	var entry *types.LedgerEntry
	err := h.withStorage(func(s *storage.Storage) error {
		var err error
		entry, err = s.Get(key, h.budget)
		return err
	})
	if err != nil {
		return nil, err
	}
	if entry.Kind != types.EntryContractData || entry.ContractData == nil {
		return nil, fmt.Errorf("expected ContractData ledger entry: %w",
			types.NewError(types.ErrStorage, types.CodeInternalError))
	}
	if entry.ContractData.Val == nil {
		return nil, fmt.Errorf("ledger entry for contract instance does not contain contract instance: %w",
			types.NewError(types.ErrStorage, types.CodeInternalError))
	}
	return h.MeteredCloneInstance(entry.ContractData.Val)
}

// StoreContractInstance writes instance into the contract's instance entry.
// An existing entry is cloned, its value overwritten, and re-put with its
// expiration preserved; a missing entry is created persistent with the
// minimum persistent expiration.
func (h *Host) StoreContractInstance(instance *types.ContractInstance, contractID types.Hash, key *types.LedgerKey) error {
	var exists bool
	err := h.withStorage(func(s *storage.Storage) error {
		var err error
		exists, err = s.Has(key, h.budget)
		return err
	})
	if err != nil {
		return h.decorateInstanceStorageError(err, contractID)
	}

	if exists {
		var current *types.LedgerEntry
		var expiration uint32
		err := h.withStorage(func(s *storage.Storage) error {
			var err error
			current, expiration, err = s.GetWithExpiration(key, h.budget)
			return err
		})
		if err != nil {
			return h.decorateInstanceStorageError(err, contractID)
		}
		updated, err := h.meteredCloneEntry(current)
		if err != nil {
			return err
		}
		if updated.Kind != types.EntryContractData || updated.ContractData == nil {
			return fmt.Errorf("expected ContractData ledger entry: %w",
				types.NewError(types.ErrStorage, types.CodeInternalError))
		}
		updated.ContractData.Val = instance
		err = h.withStorage(func(s *storage.Storage) error {
			exp := expiration
			return s.Put(key, updated, &exp, h.budget)
		})
		if err != nil {
			return h.decorateInstanceStorageError(err, contractID)
		}
		return nil
	}

	id, err := h.meteredCloneHash(contractID)
	if err != nil {
		return err
	}
	entry := h.LedgerEntryFromData(types.EntryContractData, &types.ContractDataEntry{
		ContractID: id,
		Durability: types.DurabilityPersistent,
		Val:        instance,
	}, nil)
	expiration := h.MinExpirationLedger(types.DurabilityPersistent)
	err = h.withStorage(func(s *storage.Storage) error {
		return s.Put(key, entry, &expiration, h.budget)
	})
	if err != nil {
		return h.decorateInstanceStorageError(err, contractID)
	}
	return nil
}

// WasmExists reports whether a ContractCode entry exists for the hash.
func (h *Host) WasmExists(wasmHash types.Hash) (bool, error) {
	key, err := h.ContractCodeLedgerKey(wasmHash)
	if err != nil {
		return false, err
	}
	var exists bool
	err = h.withStorage(func(s *storage.Storage) error {
		var err error
		exists, err = s.Has(key, h.budget)
		return err
	})
	if err != nil {
		return false, h.decorateCodeStorageError(err, wasmHash)
	}
	return exists, nil
}

// RetrieveWasm fetches the wasm blob for a code hash, cloned under
// metering.
func (h *Host) RetrieveWasm(wasmHash types.Hash) ([]byte, error) {
	key, err := h.ContractCodeLedgerKey(wasmHash)
	if err != nil {
		return nil, err
	}
	var entry *types.LedgerEntry
	err = h.withStorage(func(s *storage.Storage) error {
		var err error
		entry, err = s.Get(key, h.budget)
		return err
	})
	if err != nil {
		return nil, h.decorateCodeStorageError(err, wasmHash)
	}
	if entry.Kind != types.EntryContractCode || entry.ContractCode == nil {
		return nil, fmt.Errorf("expected ContractCode ledger entry for %s: %w",
			wasmHash, types.NewError(types.ErrStorage, types.CodeInternalError))
	}
	return h.MeteredCloneBytes(entry.ContractCode.Code)
}

// BumpContractInstanceAndCode raises the instance entry's expiration to at
// least lowWM, capped by highWM, then does the same for the referenced
// ContractCode entry when the executable is wasm. Token executables have no
// code entry to bump.
func (h *Host) BumpContractInstanceAndCode(contractID types.Hash, lowWM, highWM uint32) error {
	key, err := h.ContractInstanceLedgerKey(contractID)
	if err != nil {
		return err
	}
	err = h.withStorage(func(s *storage.Storage) error {
		return s.Bump(key, lowWM, highWM, h.budget)
	})
	if err != nil {
		return h.decorateInstanceStorageError(err, contractID)
	}
	instance, err := h.RetrieveContractInstance(key)
	if err != nil {
		return err
	}
	switch instance.Executable.Kind {
	case types.ExecutableWasm:
		wasmHash := instance.Executable.WasmHash
		codeKey, err := h.ContractCodeLedgerKey(wasmHash)
		if err != nil {
			return err
		}
		err = h.withStorage(func(s *storage.Storage) error {
			return s.Bump(codeKey, lowWM, highWM, h.budget)
		})
		if err != nil {
			return h.decorateCodeStorageError(err, wasmHash)
		}
	case types.ExecutableToken:
	}
	return nil
}

// decorateInstanceStorageError augments a storage failure with the contract
// it concerned.
func (h *Host) decorateInstanceStorageError(err error, contractID types.Hash) error {
	return fmt.Errorf("contract instance storage, contract %s: %w", contractID, err)
}

// decorateCodeStorageError augments a storage failure with the wasm hash it
// concerned.
func (h *Host) decorateCodeStorageError(err error, wasmHash types.Hash) error {
	return fmt.Errorf("contract code storage, wasm %s: %w", wasmHash, err)
}
