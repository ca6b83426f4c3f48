// Package sqlite persists snapshots in a SQLite key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/collections"
	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS collections (
	name  TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

type Persister struct {
	db *sql.DB
}

// Open opens the database file at path and creates the table if needed.
func Open(ctx context.Context, path string) (*Persister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
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

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, name := range collections.Keys {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO collections (name, value) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
			name, docs[name])
		if err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, value FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte)
	for rows.Next() {
		var name string
		var value []byte
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return collections.Decode(docs)
}

var _ memory.Persister = (*Persister)(nil)
