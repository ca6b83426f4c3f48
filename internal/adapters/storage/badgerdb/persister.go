// Package badgerdb persists snapshots in an embedded Badger database, one key
// per collection.
package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/collections"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const keyPrefix = "taskbot/"

type Persister struct {
	db *badger.DB
}

// Open opens (or creates) the database directory at dir.
func Open(dir string) (*Persister, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	return open(opts)
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory() (*Persister, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	return open(opts)
}

func open(opts badger.Options) (*Persister, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Persister{db: db}, nil
}

func (p *Persister) Close() error {
	return p.db.Close()
}

func (p *Persister) Save(ctx context.Context, snap *domain.Snapshot) error {
	docs, err := collections.Encode(snap)
	if err != nil {
		return err
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		for _, key := range collections.Keys {
			if err := txn.Set([]byte(keyPrefix+key), docs[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger save: %w", err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	docs := make(map[string][]byte)
	err := p.db.View(func(txn *badger.Txn) error {
		for _, key := range collections.Keys {
			item, err := txn.Get([]byte(keyPrefix + key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			docs[key] = val
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger load: %w", err)
	}
	return collections.Decode(docs)
}

var _ memory.Persister = (*Persister)(nil)
