package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func TestLoadMissingFile(t *testing.T) {
	p := NewPersister(filepath.Join(t.TempDir(), "data.json"))
	_, err := p.Load(context.Background())
	assert.ErrorIs(t, err, memory.ErrNoSnapshot)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(filepath.Join(t.TempDir(), "data.json"))
	snap := &domain.Snapshot{
		Tasks:    []domain.Task{{Category: domain.CategoryExam, Details: "小テスト", At: time.Date(2025, 3, 21, 8, 0, 0, 0, time.UTC)}},
		Subjects: []string{"英語"},
	}

	require.NoError(t, p.Save(ctx, snap))
	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.True(t, snap.Tasks[0].Equal(got.Tasks[0]))
	assert.Equal(t, []string{"英語"}, got.Subjects)

	entries, err := os.ReadDir(filepath.Dir(p.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewPersister(path).Load(context.Background())
	assert.ErrorContains(t, err, "decode")
}

func TestRestoreCreatesFile(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(filepath.Join(t.TempDir(), "data.json"))

	store, err := memory.Restore(ctx, p)
	require.NoError(t, err)
	store.AddSubjects("理科")
	require.NoError(t, store.Commit(ctx))

	again, err := memory.Restore(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"理科"}, again.Subjects())
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewPersister("").Path())
}

func TestRestoreKeepsFileWithUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	raw := []byte(`{"tasks":[{"category":"Homework","subject":{"name":"数学"},"details":"p.12","datetime":"2025-03-21T09:00:00+09:00"}],"subjects":["数学"],"suggest_times":[],"settings":{}}`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err := memory.Restore(context.Background(), NewPersister(path))
	assert.ErrorContains(t, err, `unknown category "Homework"`)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}
