// Package collections splits a snapshot into one JSON document per shared
// collection, for key-value backends.
package collections

import (
	"encoding/json"
	"fmt"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const (
	Tasks        = "tasks"
	Subjects     = "subjects"
	SuggestTimes = "suggest_times"
	Settings     = "settings"
)

// Keys lists every collection in a stable order.
var Keys = []string{Tasks, Subjects, SuggestTimes, Settings}

// Encode returns the JSON document of each collection.
func Encode(snap *domain.Snapshot) (map[string][]byte, error) {
	values := map[string]any{
		Tasks:        nonNil(snap.Tasks),
		Subjects:     nonNil(snap.Subjects),
		SuggestTimes: nonNil(snap.SuggestTimes),
		Settings:     snap.Settings,
	}
	out := make(map[string][]byte, len(values))
	for key, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// Decode rebuilds a snapshot from the documents present in docs. Missing
// collections stay empty; no documents at all is memory.ErrNoSnapshot.
func Decode(docs map[string][]byte) (*domain.Snapshot, error) {
	if len(docs) == 0 {
		return nil, memory.ErrNoSnapshot
	}
	snap := &domain.Snapshot{}
	targets := map[string]any{
		Tasks:        &snap.Tasks,
		Subjects:     &snap.Subjects,
		SuggestTimes: &snap.SuggestTimes,
		Settings:     &snap.Settings,
	}
	for key, b := range docs {
		target, ok := targets[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(b, target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return snap, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
