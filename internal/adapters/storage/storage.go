// Package storage picks the persistence backend named in the config.
package storage

import (
	"context"
	"fmt"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/badgerdb"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/firestore"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/jsonfile"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/taskbot/internal/config"
)

// Open returns the persister for cfg and a function releasing it. The memory
// backend has a nil persister.
func Open(ctx context.Context, cfg config.StorageConfig) (memory.Persister, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StorageMemory:
		return nil, noop, nil
	case config.StorageJSON:
		return jsonfile.NewPersister(cfg.Path), noop, nil
	case config.StorageBadger:
		p, err := badgerdb.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.StorageSQLite:
		p, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.StorageFirestore:
		p, err := firestore.NewPersister(ctx, cfg.GCPProject)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenStore opens the backend and restores the shared store from it.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (*memory.Store, func() error, error) {
	p, closeFn, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := memory.Restore(ctx, p)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
