// Package host ties the budget, storage access layer, and object table into
// the facade contracts execute against. Every datum crossing the trust
// boundary between contract-controlled state and host memory is cloned
// under metering, and every collaborator is reached through an exclusive
// borrow taken for the duration of one call.
package host

import (
	"sync"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/storage"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// Host is the execution context of one contract invocation. Collaborators
// (the engine bridge, host builtins, the storage facade) all hold the same
// Host; the budget and storage are borrowed exclusively per call, and a
// reentrant borrow surfaces as an internal error rather than a deadlock or
// panic. A Host is bound to one goroutine for its lifetime.
type Host struct {
	budget *budget.Budget

	storageMu sync.Mutex
	storage   *storage.Storage

	objectsMu sync.Mutex
	objects   []string

	ledger types.LedgerInfo
}

func New(b *budget.Budget, store *storage.Storage, ledger types.LedgerInfo) *Host {
	if b == nil {
		b = budget.NewDefault()
	}
	if store == nil {
		store = storage.New(nil)
	}
	return &Host{budget: b, storage: store, ledger: ledger}
}

// Budget returns the shared budget handle.
func (h *Host) Budget() *budget.Budget {
	return h.budget
}

// LedgerInfo returns the ledger context of the invocation.
func (h *Host) LedgerInfo() types.LedgerInfo {
	return h.ledger
}

// withStorage runs f under the storage borrow.
func (h *Host) withStorage(f func(*storage.Storage) error) error {
	if !h.storageMu.TryLock() {
		return types.NewError(types.ErrStorage, types.CodeInternalError)
	}
	defer h.storageMu.Unlock()
	return f(h.storage)
}

// MinExpirationLedger returns the minimum expiration a newly created entry
// of the given durability receives.
func (h *Host) MinExpirationLedger(d types.Durability) uint32 {
	switch d {
	case types.DurabilityPersistent:
		return h.ledger.SequenceNumber + h.ledger.MinPersistentEntryExpiration
	default:
		return h.ledger.SequenceNumber + h.ledger.MinTempEntryExpiration
	}
}

// LedgerEntryFromData wraps entry data into a ledger entry. The
// last-modified sequence is set on the ledger side when the transaction
// commits.
func (h *Host) LedgerEntryFromData(kind types.LedgerEntryKind, data *types.ContractDataEntry, code *types.ContractCodeEntry) *types.LedgerEntry {
	return &types.LedgerEntry{
		LastModifiedLedgerSeq: 0,
		Kind:                  kind,
		ContractData:          data,
		ContractCode:          code,
	}
}
