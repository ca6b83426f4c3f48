package flows

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const itemID = "item"

// DefaultPageSize is the platform's select menu option limit.
const DefaultPageSize = 25

// SelectorOptions configures SelectOne.
type SelectorOptions[T any] struct {
	Name        string
	Header      interaction.Embed
	Placeholder string
	// PageSize defaults to DefaultPageSize.
	PageSize int
	Label    func(T) string
	// Describe is optional.
	Describe func(T) string
	Timeout  time.Duration
}

type pageState struct {
	Page int
	// Selected indexes the item snapshot; -1 when nothing is selected.
	Selected int
}

// SelectOne lets the user pick one of items, paged. items is the snapshot the
// option tokens index into; the selection is only a reference into it and the
// caller must re-check it against the live collection.
func SelectOne[T any](ctx context.Context, tr interaction.Transport, origin *interaction.Handle, items []T, opts SelectorOptions[T]) (T, *interaction.Handle, error) {
	var zero T
	if len(items) == 0 {
		return zero, nil, domain.ErrNothingToSelect
	}
	if opts.PageSize <= 0 || opts.PageSize > DefaultPageSize {
		opts.PageSize = DefaultPageSize
	}
	res, err := interaction.Run(ctx, tr, origin, selectorForm(items, opts), pageState{Selected: -1})
	if err != nil {
		return zero, nil, err
	}
	return items[res.State.Selected], res.Last, nil
}

func pageBounds(n, page, size int) (from, to int) {
	from = page * size
	to = min(from+size, n)
	return from, to
}

func hasNext(n, page, size int) bool {
	return n-page*size > size
}

func selectorForm[T any](items []T, opts SelectorOptions[T]) interaction.Form[pageState] {
	n, size := len(items), opts.PageSize
	return interaction.Form[pageState]{
		Name:   opts.Name,
		Render: func(s pageState) interaction.Surface { return renderSelector(items, opts, s) },
		Fields: map[string]interaction.Reducer[pageState]{
			itemID: func(s pageState, values []string) (pageState, interaction.Effect, error) {
				v, err := interaction.FirstValue(itemID, values)
				if err != nil {
					return s, interaction.Rerender, err
				}
				i, err := strconv.Atoi(v)
				from, to := pageBounds(n, s.Page, size)
				if err != nil || i < from || i >= to {
					return s, interaction.Rerender, &domain.InvalidSelectionError{Field: itemID, Token: v}
				}
				s.Selected = i
				return s, interaction.Rerender, nil
			},
			prevID: func(s pageState, _ []string) (pageState, interaction.Effect, error) {
				if s.Page > 0 {
					s.Page--
				}
				s.Selected = -1
				return s, interaction.Rerender, nil
			},
			nextID: func(s pageState, _ []string) (pageState, interaction.Effect, error) {
				if hasNext(n, s.Page, size) {
					s.Page++
				}
				s.Selected = -1
				return s, interaction.Rerender, nil
			},
		},
		Submit:    submitID,
		CanSubmit: func(s pageState) bool { return s.Selected >= 0 },
		Timeout:   opts.Timeout,
	}
}

func renderSelector[T any](items []T, opts SelectorOptions[T], s pageState) interaction.Surface {
	menu := interaction.SelectMenu{CustomID: itemID, Placeholder: opts.Placeholder}
	from, to := pageBounds(len(items), s.Page, opts.PageSize)
	for i := from; i < to; i++ {
		o := interaction.Option{
			Label:   opts.Label(items[i]),
			Value:   strconv.Itoa(i),
			Default: i == s.Selected,
		}
		if opts.Describe != nil {
			o.Description = opts.Describe(items[i])
		}
		menu.Options = append(menu.Options, o)
	}
	return withHeader(opts.Header,
		interaction.SelectRow(menu),
		interaction.ButtonRow(
			interaction.Button{CustomID: prevID, Label: "前のページ", Style: interaction.ButtonSecondary, Disabled: s.Page == 0},
			interaction.Button{CustomID: nextID, Label: "次のページ", Style: interaction.ButtonSecondary, Disabled: !hasNext(len(items), s.Page, opts.PageSize)},
		),
		interaction.ButtonRow(submitButton(s.Selected < 0)),
	)
}

// SortedTasks returns tasks latest first. Equal instants keep insertion order.
func SortedTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

// SelectTask offers the store's tasks latest first. The returned task is a
// snapshot value; RemoveTask and ReplaceTask report ErrStaleReference when it
// is gone from the live store.
func (f *Flows) SelectTask(ctx context.Context, origin *interaction.Handle, header interaction.Embed) (domain.Task, *interaction.Handle, error) {
	return SelectOne(ctx, f.Transport, origin, SortedTasks(f.Store.Tasks()), SelectorOptions[domain.Task]{
		Name:        "task_select",
		Header:      header,
		Placeholder: "タスク",
		Label:       domain.Task.Title,
		Describe: func(t domain.Task) string {
			return domain.FormatDateTime(t.At.In(f.Location))
		},
		Timeout: f.Timeouts.Picker,
	})
}

// SelectSubject offers the registered subjects.
func (f *Flows) SelectSubject(ctx context.Context, origin *interaction.Handle, header interaction.Embed) (string, *interaction.Handle, error) {
	return SelectOne(ctx, f.Transport, origin, f.Store.Subjects(), SelectorOptions[string]{
		Name:        "subject_select",
		Header:      header,
		Placeholder: "教科",
		Label:       func(s string) string { return s },
		Timeout:     f.Timeouts.Picker,
	})
}

// SelectSuggestTime offers the suggested times.
func (f *Flows) SelectSuggestTime(ctx context.Context, origin *interaction.Handle, header interaction.Embed) (domain.SuggestTime, *interaction.Handle, error) {
	return SelectOne(ctx, f.Transport, origin, f.Store.SuggestTimes(), SelectorOptions[domain.SuggestTime]{
		Name:        "suggest_time_select",
		Header:      header,
		Placeholder: "よく使う時間",
		Label: func(st domain.SuggestTime) string {
			return st.Label + " (" + st.At.String() + ")"
		},
		Timeout: f.Timeouts.Picker,
	})
}
