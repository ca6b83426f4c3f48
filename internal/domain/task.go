package domain

import (
	"fmt"
	"time"
)

// Category is the closed classification of a task.
type Category int

const (
	CategoryEvent Category = iota
	CategoryExam
	CategoryHomework
	CategoryBelongings
	CategoryOther
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryEvent,
	CategoryExam,
	CategoryHomework,
	CategoryBelongings,
	CategoryOther,
}

var categoryKeys = map[Category]string{
	CategoryEvent:      "event",
	CategoryExam:       "exam",
	CategoryHomework:   "homework",
	CategoryBelongings: "belongings",
	CategoryOther:      "other",
}

var categoryLabels = map[Category]string{
	CategoryEvent:      "イベント",
	CategoryExam:       "テスト",
	CategoryHomework:   "宿題",
	CategoryBelongings: "持ち物",
	CategoryOther:      "その他",
}

// Key is the stable identifier used in storage and tokens.
func (c Category) Key() string {
	return categoryKeys[c]
}

func (c Category) Label() string {
	return categoryLabels[c]
}

func (c Category) String() string {
	return c.Key()
}

// ParseCategory resolves a stable key.
func ParseCategory(key string) (Category, bool) {
	for c, k := range categoryKeys {
		if k == key {
			return c, true
		}
	}
	return 0, false
}

func (c Category) MarshalText() ([]byte, error) {
	k, ok := categoryKeys[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(k), nil
}

// UnmarshalText rejects unknown keys so a stored task never changes category
// on the way through.
func (c *Category) UnmarshalText(b []byte) error {
	v, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", string(b))
	}
	*c = v
	return nil
}

// Subject is either a known label or unspecified (the zero value).
type Subject struct {
	Name string `json:"name,omitempty"`
}

func SubjectOf(name string) Subject {
	return Subject{Name: name}
}

func (s Subject) IsSet() bool {
	return s.Name != ""
}

// Task is a dated reminder. Identity is structural: two tasks with equal fields are
// indistinguishable.
type Task struct {
	Category Category  `json:"category"`
	Subject  Subject   `json:"subject"`
	Details  string    `json:"details"`
	At       time.Time `json:"datetime"`
}

// Equal compares tasks by value; At is compared as an instant.
func (t Task) Equal(o Task) bool {
	return t.Category == o.Category &&
		t.Subject == o.Subject &&
		t.Details == o.Details &&
		t.At.Equal(o.At)
}

// Title renders 【カテゴリ】教科 詳細.
func (t Task) Title() string {
	return fmt.Sprintf("【%s】%s %s", t.Category.Label(), t.Subject.Name, t.Details)
}

// When renders the platform timestamp markup, absolute and relative.
func (t Task) When() string {
	ts := t.At.Unix()
	return fmt.Sprintf("<t:%d:F>(<t:%d:R>)", ts, ts)
}

// In returns t with At expressed in loc.
func (t Task) In(loc *time.Location) Task {
	t.At = t.At.In(loc)
	return t
}

// Partial returns the task as a fully populated draft. Date and time are read
// in At's own location.
func (t Task) Partial() PartialTask {
	category := t.Category
	subject := t.Subject
	details := t.Details
	date := DateOf(t.At)
	at := TimeOfDay{Hour: t.At.Hour(), Minute: t.At.Minute()}
	return PartialTask{
		Category: &category,
		Subject:  &subject,
		Details:  &details,
		Date:     &date,
		Time:     &at,
	}
}

// PartialTask is the working state of a task while it is being collected.
type PartialTask struct {
	Category *Category
	Subject  *Subject
	Details  *string
	Date     *Date
	Time     *TimeOfDay
}

// Finalize is the only way to turn a draft into a Task. It reports the first
// missing field in the order category, subject, date, time, details.
func (p PartialTask) Finalize(loc *time.Location) (Task, error) {
	switch {
	case p.Category == nil:
		return Task{}, &IncompleteError{Field: "category"}
	case p.Subject == nil:
		return Task{}, &IncompleteError{Field: "subject"}
	case p.Date == nil:
		return Task{}, &IncompleteError{Field: "date"}
	case p.Time == nil:
		return Task{}, &IncompleteError{Field: "time"}
	case p.Details == nil:
		return Task{}, &IncompleteError{Field: "details"}
	}
	if !p.Date.Valid() {
		return Task{}, &InvalidSelectionError{Field: "date", Token: p.Date.String()}
	}
	if !p.Time.Valid() {
		return Task{}, &InvalidSelectionError{Field: "time", Token: p.Time.String()}
	}
	return Task{
		Category: *p.Category,
		Subject:  *p.Subject,
		Details:  *p.Details,
		At:       p.Date.In(*p.Time, loc),
	}, nil
}
