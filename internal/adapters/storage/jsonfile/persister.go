// Package jsonfile persists snapshots to a single JSON file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "data.json"

type Persister struct {
	path string
}

func NewPersister(path string) *Persister {
	if path == "" {
		path = DefaultPath
	}
	return &Persister{path: path}
}

func (p *Persister) Path() string {
	return p.path
}

// Load reads the file. A missing file is memory.ErrNoSnapshot.
func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	b, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, memory.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.path, err)
	}
	return &snap, nil
}

// Save writes to a temporary file next to the target and renames it over the
// target, so a crash never leaves a half-written file.
func (p *Persister) Save(ctx context.Context, snap *domain.Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replace %s: %w", p.path, err)
	}
	return nil
}

var _ memory.Persister = (*Persister)(nil)
