package domain

import "context"

// Store is the shared domain collections service. Every method is linearizable;
// implementations must not hold locks across calls. Callers must Commit after
// each mutation.
type Store interface {
	Tasks() []Task
	// AddTask appends t and reports whether an equal task already existed.
	AddTask(t Task) (duplicate bool)
	RemoveTask(t Task) error
	ReplaceTask(old, updated Task) error

	Subjects() []string
	// AddSubjects returns the names that were not present before.
	AddSubjects(names ...string) []string
	RemoveSubject(name string) error

	SuggestTimes() []SuggestTime
	// PutSuggestTime stores st and returns the entry it replaced, if any.
	PutSuggestTime(st SuggestTime) (replaced SuggestTime, ok bool)
	RemoveSuggestTime(at TimeOfDay) (SuggestTime, error)

	Settings() Settings
	UpdateSettings(fn func(*Settings))

	Snapshot() Snapshot
	Commit(ctx context.Context) error
}
