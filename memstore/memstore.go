// Package memstore implements the Item store contract on BadgerDB.
//
// It mirrors the DynamoDB layout: a primary record per id and a secondary
// index entry keyed by serialNumber and dateCreatedAt. Both are written in
// one transaction, so the index can never drift from the primary record.
// In-memory mode backs unit tests and local development; a path-backed mode
// persists across runs.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jacentio/itemstore/store"
)

// Key layout. The 0x00 separator cannot appear in attribute values, so
// composite keys never collide.
var (
	itemPrefix  = []byte("item\x00")
	indexPrefix = []byte("sn\x00")
)

// Options configures the BadgerDB store.
type Options struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string

	// InMemory forces in-memory mode even if Path is set.
	InMemory bool

	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// Store is a BadgerDB-backed Item store with the same contract as the
// DynamoDB store.
type Store struct {
	db *badger.DB
}

// New opens a BadgerDB-backed store.
func New(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetByID retrieves an Item by primary key, returning store.ErrNotFound if
// missing.
func (s *Store) GetByID(ctx context.Context, id string) (*store.Item, error) {
	var it *store.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		it, err = getItem(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// GetBySerialNumber resolves an Item through the secondary index. When
// several Items share a serialNumber, the one with the greatest
// dateCreatedAt wins.
func (s *Store) GetBySerialNumber(ctx context.Context, serialNumber string) (*store.Item, error) {
	prefix := indexScanPrefix(serialNumber)

	var latestID string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		// Index keys for one serialNumber sort by dateCreatedAt, so the
		// last key under the prefix is the latest creation.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				latestID = string(val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if latestID == "" {
		return nil, store.ErrNotFound
	}

	return s.GetByID(ctx, latestID)
}

// List returns every stored Item in unspecified order.
func (s *Store) List(ctx context.Context) ([]store.Item, error) {
	var items []store.Item
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = itemPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(itemPrefix); it.ValidForPrefix(itemPrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var item store.Item
				if err := json.Unmarshal(val, &item); err != nil {
					return fmt.Errorf("decode item: %w", err)
				}
				items = append(items, item)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Put writes an Item and its index entry in one transaction. With
// expectNotExists the write fails with store.ErrAlreadyExists when the id
// is taken; otherwise it overwrites, re-keying the index entry if needed.
func (s *Store) Put(ctx context.Context, item store.Item, expectNotExists bool) error {
	return s.update(func(txn *badger.Txn) error {
		old, err := getItem(txn, item.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if old != nil && expectNotExists {
			return store.ErrAlreadyExists
		}
		if old != nil {
			if err := dropIndexEntry(txn, *old); err != nil {
				return err
			}
		}

		return setItem(txn, item)
	})
}

// ApplyPartialUpdate merges the supplied fields onto an existing Item and
// returns the updated record. An empty patch is a pass-through read.
func (s *Store) ApplyPartialUpdate(ctx context.Context, id string, patch store.Patch) (*store.Item, error) {
	var updated *store.Item
	err := s.update(func(txn *badger.Txn) error {
		current, err := getItem(txn, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = current
			return nil
		}

		next := *current
		patch.Apply(&next)

		if next.SerialNumber != current.SerialNumber {
			if err := dropIndexEntry(txn, *current); err != nil {
				return err
			}
		}
		if err := setItem(txn, next); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an Item and its index entry. Returns store.ErrNotFound if
// the id is absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(func(txn *badger.Txn) error {
		current, err := getItem(txn, id)
		if err != nil {
			return err
		}
		if err := dropIndexEntry(txn, *current); err != nil {
			return err
		}
		return txn.Delete(itemKey(id))
	})
}

// --- transaction helpers ---

// update runs a write transaction, rerunning it when a concurrent writer
// forced a commit conflict. The rerun observes the winner's committed
// state, so a racing create resolves to store.ErrAlreadyExists and racing
// partial updates merge field by field instead of surfacing a transport
// failure.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func getItem(txn *badger.Txn, id string) (*store.Item, error) {
	entry, err := txn.Get(itemKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var it store.Item
	err = entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &it)
	})
	if err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &it, nil
}

func setItem(txn *badger.Txn, it store.Item) error {
	encoded, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	if err := txn.Set(itemKey(it.ID), encoded); err != nil {
		return err
	}
	if key, ok := indexKey(it); ok {
		return txn.Set(key, []byte(it.ID))
	}
	return nil
}

func dropIndexEntry(txn *badger.Txn, it store.Item) error {
	key, ok := indexKey(it)
	if !ok {
		return nil
	}
	err := txn.Delete(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func itemKey(id string) []byte {
	return append(append([]byte{}, itemPrefix...), id...)
}

// indexKey returns the secondary index key for an Item. Like a sparse GSI,
// Items missing either key attribute have no index entry.
func indexKey(it store.Item) ([]byte, bool) {
	if it.SerialNumber == "" || it.DateCreatedAt == "" {
		return nil, false
	}
	var buf bytes.Buffer
	buf.Write(indexPrefix)
	buf.WriteString(it.SerialNumber)
	buf.WriteByte(0)
	buf.WriteString(it.DateCreatedAt)
	buf.WriteByte(0)
	buf.WriteString(it.ID)
	return buf.Bytes(), true
}

func indexScanPrefix(serialNumber string) []byte {
	var buf bytes.Buffer
	buf.Write(indexPrefix)
	buf.WriteString(serialNumber)
	buf.WriteByte(0)
	return buf.Bytes()
}
