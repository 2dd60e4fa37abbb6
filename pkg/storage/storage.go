// Package storage is the ledger-key-addressed access layer of the host. It
// fronts a read-only snapshot of the ledger with an ordered in-memory map
// of the entries an invocation has touched; every access is charged against
// the budget it is handed. Entry lifecycles are owned by the ledger outside
// this core: the layer reads, rewrites out-of-place, and bumps expirations,
// nothing else.
package storage

import (
	"math/bits"

	"github.com/tidwall/btree"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/encoding"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// SnapshotSource supplies committed ledger entries beneath the access
// layer. Returning ok=false means the entry does not exist.
type SnapshotSource interface {
	Get(key *types.LedgerKey) (entry *types.LedgerEntry, expiration uint32, ok bool, err error)
}

// EmptySnapshot is a snapshot with no entries.
type EmptySnapshot struct{}

func (EmptySnapshot) Get(*types.LedgerKey) (*types.LedgerEntry, uint32, bool, error) {
	return nil, 0, false, nil
}

type mapEntry struct {
	key        *types.LedgerKey
	entry      *types.LedgerEntry
	expiration uint32
	// live distinguishes a cached miss from a present entry.
	live bool
}

// Storage is the access layer state for one invocation.
type Storage struct {
	snapshot SnapshotSource
	entries  *btree.Map[string, *mapEntry]
}

func New(snapshot SnapshotSource) *Storage {
	if snapshot == nil {
		snapshot = EmptySnapshot{}
	}
	return &Storage{
		snapshot: snapshot,
		entries:  btree.NewMap[string, *mapEntry](8),
	}
}

// chargeAccess prices one keyed map access: the ordered-map entry visit
// plus the key comparisons on the lookup path.
func (s *Storage) chargeAccess(b *budget.Budget, encodedKey []byte) error {
	if err := b.Charge(budget.MapEntry, nil); err != nil {
		return err
	}
	depth := uint64(bits.Len(uint(s.entries.Len()))) + 1
	return b.BulkCharge(budget.HostMemCmp, depth, budget.Input(uint64(len(encodedKey))))
}

func (s *Storage) lookup(key *types.LedgerKey, b *budget.Budget) (*mapEntry, error) {
	kb, err := encoding.MarshalLedgerKey(key)
	if err != nil {
		return nil, types.NewError(types.ErrStorage, types.CodeInternalError)
	}
	if err := s.chargeAccess(b, kb); err != nil {
		return nil, err
	}
	if me, ok := s.entries.Get(string(kb)); ok {
		return me, nil
	}
	entry, expiration, ok, err := s.snapshot.Get(key)
	if err != nil {
		return nil, err
	}
	me := &mapEntry{key: key, entry: entry, expiration: expiration, live: ok}
	s.entries.Set(string(kb), me)
	return me, nil
}

// Get returns the entry at key, failing with a missing-value error if it
// does not exist.
func (s *Storage) Get(key *types.LedgerKey, b *budget.Budget) (*types.LedgerEntry, error) {
	entry, _, err := s.GetWithExpiration(key, b)
	return entry, err
}

// GetWithExpiration returns the entry at key along with its expiration
// ledger sequence.
func (s *Storage) GetWithExpiration(key *types.LedgerKey, b *budget.Budget) (*types.LedgerEntry, uint32, error) {
	me, err := s.lookup(key, b)
	if err != nil {
		return nil, 0, err
	}
	if !me.live {
		return nil, 0, types.NewError(types.ErrStorage, types.CodeMissingValue)
	}
	return me.entry, me.expiration, nil
}

// Has reports whether an entry exists at key.
func (s *Storage) Has(key *types.LedgerKey, b *budget.Budget) (bool, error) {
	me, err := s.lookup(key, b)
	if err != nil {
		return false, err
	}
	return me.live, nil
}

// Put writes entry at key. A nil expiration preserves the entry's current
// expiration; a new entry with nil expiration gets zero.
func (s *Storage) Put(key *types.LedgerKey, entry *types.LedgerEntry, expiration *uint32, b *budget.Budget) error {
	me, err := s.lookup(key, b)
	if err != nil {
		return err
	}
	me.entry = entry
	me.live = true
	if expiration != nil {
		me.expiration = *expiration
	}
	return nil
}

// Bump raises the entry's expiration to at least lowWM, never above highWM.
// An expiration already at or past lowWM is left unchanged, even when it is
// above highWM: a bump never lowers an expiration.
func (s *Storage) Bump(key *types.LedgerKey, lowWM, highWM uint32, b *budget.Budget) error {
	me, err := s.lookup(key, b)
	if err != nil {
		return err
	}
	if !me.live {
		return types.NewError(types.ErrStorage, types.CodeMissingValue)
	}
	bumped := me.expiration
	if bumped < lowWM {
		bumped = lowWM
	}
	if bumped > highWM {
		bumped = highWM
	}
	if bumped > me.expiration {
		me.expiration = bumped
	}
	return nil
}

// Expiration returns the tracked expiration for a live entry.
func (s *Storage) Expiration(key *types.LedgerKey, b *budget.Budget) (uint32, error) {
	_, exp, err := s.GetWithExpiration(key, b)
	return exp, err
}

// Touched walks every entry the invocation has read or written, in key
// order, for handing the access set back to the ledger.
func (s *Storage) Touched(fn func(key *types.LedgerKey, entry *types.LedgerEntry, expiration uint32, live bool) error) error {
	var walkErr error
	s.entries.Scan(func(_ string, me *mapEntry) bool {
		if err := fn(me.key, me.entry, me.expiration, me.live); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	return walkErr
}
