package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// ErrNoSnapshot is returned by a Persister that has never been saved to.
var ErrNoSnapshot = errors.New("no stored snapshot")

// Persister saves and loads whole snapshots. A nil Persister keeps data in
// memory only.
type Persister interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// Store is the in-process implementation of domain.Store. Every method holds
// the lock only for its own duration.
type Store struct {
	mu           sync.RWMutex
	tasks        []domain.Task
	subjects     []string
	suggestTimes []domain.SuggestTime
	settings     domain.Settings

	// commitMu orders saves so an older snapshot never overwrites a newer one.
	commitMu  sync.Mutex
	persister Persister
}

// NewStore creates an empty store backed by p.
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

// Restore loads the last snapshot from p. When p has none yet the store
// starts empty and the empty state is saved right away.
func Restore(ctx context.Context, p Persister) (*Store, error) {
	s := NewStore(p)
	if p == nil {
		return s, nil
	}
	snap, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		observability.Logger().Info("no stored data, using defaults")
		return s, s.Commit(ctx)
	case err != nil:
		return nil, fmt.Errorf("restore store: %w", err)
	}
	s.load(*snap)
	observability.Logger().Info("store restored",
		zap.Int("tasks", len(s.tasks)),
		zap.Int("subjects", len(s.subjects)),
		zap.Int("suggest_times", len(s.suggestTimes)),
	)
	return s, nil
}

func (s *Store) load(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.Clone(snap.Tasks)
	s.subjects = nil
	for _, name := range snap.Subjects {
		s.subjects = insertSorted(s.subjects, name)
	}
	s.suggestTimes = nil
	for _, st := range snap.SuggestTimes {
		s.suggestTimes = putSuggestTime(s.suggestTimes, st)
	}
	s.settings = cloneSettings(snap.Settings)
}

// ─────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────

func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *Store) AddTask(t domain.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := indexOfTask(s.tasks, t) >= 0
	s.tasks = append(s.tasks, t)
	return dup
}

// RemoveTask removes the first task equal to t.
func (s *Store) RemoveTask(t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfTask(s.tasks, t)
	if i < 0 {
		return domain.ErrStaleReference
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

// ReplaceTask swaps the first task equal to old for updated, keeping its position.
func (s *Store) ReplaceTask(old, updated domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfTask(s.tasks, old)
	if i < 0 {
		return domain.ErrStaleReference
	}
	s.tasks[i] = updated
	return nil
}

func indexOfTask(tasks []domain.Task, t domain.Task) int {
	return slices.IndexFunc(tasks, t.Equal)
}

// ─────────────────────────────────────────
// Subjects
// ─────────────────────────────────────────

func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subjects)
}

func (s *Store) AddSubjects(names ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var added []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, found := slices.BinarySearch(s.subjects, name); found {
			continue
		}
		s.subjects = insertSorted(s.subjects, name)
		added = append(added, name)
	}
	return added
}

func (s *Store) RemoveSubject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := slices.BinarySearch(s.subjects, name)
	if !found {
		return domain.ErrStaleReference
	}
	s.subjects = slices.Delete(s.subjects, i, i+1)
	return nil
}

func insertSorted(list []string, name string) []string {
	i, found := slices.BinarySearch(list, name)
	if found {
		return list
	}
	return slices.Insert(list, i, name)
}

// ─────────────────────────────────────────
// Suggested times
// ─────────────────────────────────────────

func (s *Store) SuggestTimes() []domain.SuggestTime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.suggestTimes)
}

// PutSuggestTime adds st, replacing the label of an existing entry at the same time.
func (s *Store) PutSuggestTime(st domain.SuggestTime) (domain.SuggestTime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var replaced domain.SuggestTime
	i := slices.IndexFunc(s.suggestTimes, func(e domain.SuggestTime) bool { return e.At == st.At })
	if i >= 0 {
		replaced = s.suggestTimes[i]
	}
	s.suggestTimes = putSuggestTime(s.suggestTimes, st)
	return replaced, i >= 0
}

func (s *Store) RemoveSuggestTime(at domain.TimeOfDay) (domain.SuggestTime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.suggestTimes, func(st domain.SuggestTime) bool { return st.At == at })
	if i < 0 {
		return domain.SuggestTime{}, domain.ErrStaleReference
	}
	removed := s.suggestTimes[i]
	s.suggestTimes = slices.Delete(s.suggestTimes, i, i+1)
	return removed, nil
}

func putSuggestTime(list []domain.SuggestTime, st domain.SuggestTime) []domain.SuggestTime {
	i := sort.Search(len(list), func(i int) bool { return !list[i].At.Before(st.At) })
	if i < len(list) && list[i].At == st.At {
		list[i].Label = st.Label
		return list
	}
	return slices.Insert(list, i, st)
}

// ─────────────────────────────────────────
// Settings and persistence
// ─────────────────────────────────────────

func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

func (s *Store) UpdateSettings(fn func(*domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneSettings(s.settings)
	fn(&next)
	s.settings = next
}

func cloneSettings(in domain.Settings) domain.Settings {
	out := in
	if in.Panel != nil {
		p := *in.Panel
		out.Panel = &p
	}
	return out
}

func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		Tasks:        slices.Clone(s.tasks),
		Subjects:     slices.Clone(s.subjects),
		SuggestTimes: slices.Clone(s.suggestTimes),
		Settings:     cloneSettings(s.settings),
	}
}

// Commit saves the current state through the persister.
func (s *Store) Commit(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	snap := s.Snapshot()
	if err := s.persister.Save(ctx, &snap); err != nil {
		return fmt.Errorf("commit store: %w", err)
	}
	return nil
}

var _ domain.Store = (*Store)(nil)
