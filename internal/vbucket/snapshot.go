package vbucket

import (
	"encoding/json"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// snapshotKey is the single key under which the last-accepted Map is
// persisted. One Router owns one SnapshotStore, so no namespacing is needed.
var snapshotKey = []byte("vbmap")

// SnapshotStore persists the most recently accepted Map to an embedded
// BadgerDB so a restarted process whose seeds are all unreachable can
// still dispatch against the last-known topology.
type SnapshotStore struct {
	db *badgerdb.DB
}

// OpenSnapshotStore opens (creating if absent) a BadgerDB at path for
// topology snapshot persistence.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions(path))
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save persists m, overwriting whatever snapshot was previously stored.
// Callers should only save maps that already passed Revision.Greater
// acceptance; Save itself does not compare revisions.
func (s *SnapshotStore) Save(m Map) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey, data)
	})
}

// Load returns the last-persisted Map, or ok=false if nothing has been
// saved yet (a fresh cache directory, or an empty database).
func (s *SnapshotStore) Load() (m Map, ok bool, err error) {
	err = s.db.View(func(txn *badgerdb.Txn) error {
		item, getErr := txn.Get(snapshotKey)
		if getErr == badgerdb.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		ok = false
		return Map{}, false, err
	}
	return m, ok, nil
}
