// Package catalog derives the selectable options of the task form from the
// working draft and the shared collections.
//
// Every option carries an opaque token. Tokens round-trip through the chat
// platform and are resolved back with checked lookups against the same
// snapshot the options were built from.
package catalog

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/PabloGalante/taskbot/internal/domain"
)

// Field names double as the custom ids of the form's select menus.
const (
	FieldCategory = "category"
	FieldSubject  = "subject"
	FieldDate     = "date"
	FieldTime     = "time"
)

// MaxOptions is the platform limit of options per select menu.
const MaxOptions = 25

// DateWindow is how many days, starting today, are offered directly.
const DateWindow = 24

const (
	categoryPrefix = "cat:"
	subjectPrefix  = "subj:"
	datePrefix     = "date:"
	timePrefix     = "time:"
	unsetSubject   = subjectPrefix + "-"
)

// OtherToken is the "choose something else" sentinel. It is generated once per
// process and can never collide with a real token.
var OtherToken = "other:" + uuid.NewString()

const (
	labelUnsetSubject = "(教科を指定しない)"
	labelOtherDate    = "その他の日付"
	labelOtherTime    = "その他の時刻"
)

// Draft is the working state of the top-level task form.
type Draft struct {
	Task domain.PartialTask
	// DateDeferred and TimeDeferred record an explicit "other" choice; the value
	// is then collected by a sub-flow after submit.
	DateDeferred bool
	TimeDeferred bool
}

// Snapshot is the read-only input the options are built from.
type Snapshot struct {
	Subjects     []string
	SuggestTimes []domain.SuggestTime
	Today        domain.Date
}

type Choice struct {
	Label   string
	Token   string
	Default bool
}

type Field struct {
	Name        string
	Placeholder string
	Choices     []Choice
}

// Catalog is the full option set for one render of the form.
type Catalog struct {
	Fields        []Field
	SubmitEnabled bool
}

// Field returns the field with the given name.
func (c Catalog) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Build is a pure function of its input.
func Build(d Draft, snap Snapshot) Catalog {
	return Catalog{
		Fields: []Field{
			categoryField(d),
			subjectField(d, snap),
			dateField(d, snap),
			timeField(d, snap),
		},
		SubmitEnabled: d.Task.Category != nil && d.Task.Subject != nil,
	}
}

func categoryField(d Draft) Field {
	f := Field{Name: FieldCategory, Placeholder: "カテゴリー"}
	for _, c := range domain.Categories {
		f.Choices = append(f.Choices, Choice{
			Label:   c.Label(),
			Token:   CategoryToken(c),
			Default: d.Task.Category != nil && *d.Task.Category == c,
		})
	}
	return f
}

func subjectField(d Draft, snap Snapshot) Field {
	f := Field{Name: FieldSubject, Placeholder: "教科"}
	current := ""
	if s := d.Task.Subject; s != nil {
		current = subjectToken(*s, snap)
		if s.IsSet() {
			f.Placeholder = s.Name
		}
	}
	for i, name := range snap.Subjects {
		if i == MaxOptions-1 {
			break
		}
		tok := subjectPrefix + strconv.Itoa(i)
		f.Choices = append(f.Choices, Choice{Label: name, Token: tok, Default: tok == current})
	}
	f.Choices = append(f.Choices, Choice{
		Label:   labelUnsetSubject,
		Token:   unsetSubject,
		Default: current == unsetSubject,
	})
	return f
}

func dateField(d Draft, snap Snapshot) Field {
	f := Field{Name: FieldDate, Placeholder: "日付"}
	current := ""
	if d.Task.Date != nil {
		current = DateToken(*d.Task.Date)
		f.Placeholder = domain.FormatDate(*d.Task.Date)
	}
	for i := 0; i < DateWindow; i++ {
		day := snap.Today.AddDays(i)
		tok := DateToken(day)
		f.Choices = append(f.Choices, Choice{Label: domain.FormatDate(day), Token: tok, Default: tok == current})
	}
	f.Choices = append(f.Choices, Choice{Label: labelOtherDate, Token: OtherToken, Default: d.DateDeferred})
	return f
}

func timeField(d Draft, snap Snapshot) Field {
	f := Field{Name: FieldTime, Placeholder: "時間"}
	current := ""
	if d.Task.Time != nil {
		current = TimeToken(*d.Task.Time)
		f.Placeholder = d.Task.Time.String()
	}
	for i, st := range snap.SuggestTimes {
		if i == MaxOptions-1 {
			break
		}
		tok := TimeToken(st.At)
		f.Choices = append(f.Choices, Choice{
			Label:   st.Label + " (" + st.At.String() + ")",
			Token:   tok,
			Default: tok == current,
		})
	}
	f.Choices = append(f.Choices, Choice{Label: labelOtherTime, Token: OtherToken, Default: d.TimeDeferred})
	return f
}

func CategoryToken(c domain.Category) string {
	return categoryPrefix + c.Key()
}

func DateToken(d domain.Date) string {
	return datePrefix + d.String()
}

func TimeToken(t domain.TimeOfDay) string {
	return timePrefix + t.String()
}

// subjectToken returns "" for a subject no longer in the snapshot.
func subjectToken(s domain.Subject, snap Snapshot) string {
	if !s.IsSet() {
		return unsetSubject
	}
	for i, name := range snap.Subjects {
		if i == MaxOptions-1 {
			break
		}
		if name == s.Name {
			return subjectPrefix + strconv.Itoa(i)
		}
	}
	return ""
}

func invalid(field, token string) error {
	return &domain.InvalidSelectionError{Field: field, Token: token}
}

func ResolveCategory(token string) (domain.Category, error) {
	key, ok := strings.CutPrefix(token, categoryPrefix)
	if !ok {
		return 0, invalid(FieldCategory, token)
	}
	c, ok := domain.ParseCategory(key)
	if !ok {
		return 0, invalid(FieldCategory, token)
	}
	return c, nil
}

func ResolveSubject(token string, snap Snapshot) (domain.Subject, error) {
	if token == unsetSubject {
		return domain.Subject{}, nil
	}
	raw, ok := strings.CutPrefix(token, subjectPrefix)
	if !ok {
		return domain.Subject{}, invalid(FieldSubject, token)
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(snap.Subjects) || i >= MaxOptions-1 {
		return domain.Subject{}, invalid(FieldSubject, token)
	}
	return domain.SubjectOf(snap.Subjects[i]), nil
}

// ResolveDate reports deferred for the sentinel. Dates outside the offered
// window do not resolve.
func ResolveDate(token string, snap Snapshot) (date domain.Date, deferred bool, err error) {
	if token == OtherToken {
		return domain.Date{}, true, nil
	}
	raw, ok := strings.CutPrefix(token, datePrefix)
	if !ok {
		return domain.Date{}, false, invalid(FieldDate, token)
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, false, invalid(FieldDate, token)
	}
	for i := 0; i < DateWindow; i++ {
		if snap.Today.AddDays(i) == d {
			return d, false, nil
		}
	}
	return domain.Date{}, false, invalid(FieldDate, token)
}

// ResolveTime reports deferred for the sentinel. Only suggested times resolve.
func ResolveTime(token string, snap Snapshot) (at domain.TimeOfDay, deferred bool, err error) {
	if token == OtherToken {
		return domain.TimeOfDay{}, true, nil
	}
	for i, st := range snap.SuggestTimes {
		if i == MaxOptions-1 {
			break
		}
		if TimeToken(st.At) == token {
			return st.At, false, nil
		}
	}
	return domain.TimeOfDay{}, false, invalid(FieldTime, token)
}

// Apply resolves token for field and returns the updated draft. The draft is
// returned unchanged on error.
func Apply(d Draft, field, token string, snap Snapshot) (Draft, error) {
	switch field {
	case FieldCategory:
		c, err := ResolveCategory(token)
		if err != nil {
			return d, err
		}
		d.Task.Category = &c
	case FieldSubject:
		s, err := ResolveSubject(token, snap)
		if err != nil {
			return d, err
		}
		d.Task.Subject = &s
	case FieldDate:
		date, deferred, err := ResolveDate(token, snap)
		if err != nil {
			return d, err
		}
		d.DateDeferred = deferred
		d.Task.Date = nil
		if !deferred {
			d.Task.Date = &date
		}
	case FieldTime:
		at, deferred, err := ResolveTime(token, snap)
		if err != nil {
			return d, err
		}
		d.TimeDeferred = deferred
		d.Task.Time = nil
		if !deferred {
			d.Task.Time = &at
		}
	default:
		return d, invalid(field, token)
	}
	return d, nil
}
