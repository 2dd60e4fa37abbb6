package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/aetheriaxai/wasmhost/pkg/encoding"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

const ledgerPrefix = "ledger/"

// PebbleSnapshot is a SnapshotSource over a committed ledger stored in
// Pebble. Values are a 4-byte big-endian expiration followed by the
// encoded entry.
type PebbleSnapshot struct {
	db *pebble.DB
}

// OpenPebble opens or creates a Pebble-backed snapshot under home.
func OpenPebble(home string) (*PebbleSnapshot, error) {
	path := filepath.Join(home, "ledger")
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleSnapshot{db: db}, nil
}

// Close closes the underlying store.
func (p *PebbleSnapshot) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func snapshotKey(key *types.LedgerKey) ([]byte, error) {
	kb, err := encoding.MarshalLedgerKey(key)
	if err != nil {
		return nil, err
	}
	return append([]byte(ledgerPrefix), kb...), nil
}

// Get implements SnapshotSource.
func (p *PebbleSnapshot) Get(key *types.LedgerKey) (*types.LedgerEntry, uint32, bool, error) {
	kb, err := snapshotKey(key)
	if err != nil {
		return nil, 0, false, err
	}
	val, closer, err := p.db.Get(kb)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("get ledger entry: %w", err)
	}
	defer closer.Close()
	if len(val) < 4 {
		return nil, 0, false, fmt.Errorf("invalid ledger entry encoding")
	}
	expiration := binary.BigEndian.Uint32(val[:4])
	entry, err := encoding.UnmarshalLedgerEntry(val[4:])
	if err != nil {
		return nil, 0, false, err
	}
	return entry, expiration, true, nil
}

// Put seeds or updates a committed entry. The access layer never writes
// back through this; commit is driven by the ledger side walking Touched.
func (p *PebbleSnapshot) Put(key *types.LedgerKey, entry *types.LedgerEntry, expiration uint32) error {
	kb, err := snapshotKey(key)
	if err != nil {
		return err
	}
	eb, err := encoding.MarshalLedgerEntry(entry)
	if err != nil {
		return err
	}
	val := make([]byte, 0, 4+len(eb))
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], expiration)
	val = append(val, tmp[:]...)
	val = append(val, eb...)
	return p.db.Set(kb, val, pebble.Sync)
}

// Delete removes a committed entry.
func (p *PebbleSnapshot) Delete(key *types.LedgerKey) error {
	kb, err := snapshotKey(key)
	if err != nil {
		return err
	}
	return p.db.Delete(kb, pebble.Sync)
}
