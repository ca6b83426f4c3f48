package agenda

import (
	"sort"
	"time"

	"github.com/PabloGalante/taskbot/internal/domain"
)

// DefaultPageSize is how many tasks one panel view shows.
const DefaultPageSize = 5

// Service holds the read-side queries over the task list
type Service struct {
	store domain.Store
	loc   *time.Location
	now   func() time.Time
}

// NewService creates an agenda service reading from store; days are cut in loc.
func NewService(store domain.Store, loc *time.Location) *Service {
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) tasks() []domain.Task {
	if s.store == nil {
		return []domain.Task{}
	}
	return s.store.Tasks()
}

// Upcoming returns tasks at or after now, soonest first.
func (s *Service) Upcoming() []domain.Task {
	now := s.now()
	out := filter(s.tasks(), func(t domain.Task) bool { return !t.At.Before(now) })
	sortByTime(out, false)
	return out
}

// Archived returns tasks before now, latest first.
func (s *Service) Archived() []domain.Task {
	now := s.now()
	out := filter(s.tasks(), func(t domain.Task) bool { return t.At.Before(now) })
	sortByTime(out, true)
	return out
}

// TomorrowWindow returns the bounds of the day after now's day in loc.
func TomorrowWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	y, m, d := now.In(loc).Date()
	from = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	to = time.Date(y, m, d+2, 0, 0, 0, 0, loc)
	return from, to
}

// DueTomorrow returns tasks in (tomorrow 00:00, the day after 00:00], soonest
// first. A task at midnight belongs to the day it ends.
func (s *Service) DueTomorrow() []domain.Task {
	return s.DueTomorrowFrom(s.now())
}

// DueTomorrowFrom is DueTomorrow evaluated at now.
func (s *Service) DueTomorrowFrom(now time.Time) []domain.Task {
	from, to := TomorrowWindow(now, s.loc)
	out := filter(s.tasks(), func(t domain.Task) bool {
		return t.At.After(from) && !t.At.After(to)
	})
	sortByTime(out, false)
	return out
}

// Page is one slice of a task listing.
type Page struct {
	Tasks   []domain.Task
	Number  int
	HasPrev bool
	HasNext bool
}

// Paginate cuts tasks into pages of size. A number past the end yields an empty
// last page.
func Paginate(tasks []domain.Task, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if number < 0 {
		number = 0
	}
	from := min(number*size, len(tasks))
	to := min(from+size, len(tasks))
	return Page{
		Tasks:   tasks[from:to],
		Number:  number,
		HasPrev: number > 0,
		HasNext: len(tasks)-from > size,
	}
}

func filter(tasks []domain.Task, keep func(domain.Task) bool) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func sortByTime(tasks []domain.Task, latestFirst bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if latestFirst {
			return tasks[i].At.After(tasks[j].At)
		}
		return tasks[i].At.Before(tasks[j].At)
	})
}
