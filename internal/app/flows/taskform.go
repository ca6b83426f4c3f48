package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/taskbot/internal/app/catalog"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// CreateTask runs the task form seeded with defaults, then the date and time
// sub-flows for whatever was deferred, then the details modal. It returns the
// finalized task and the modal submission's handle, still unanswered.
//
// Nothing is written to the store; the caller commits the result.
func (f *Flows) CreateTask(ctx context.Context, origin *interaction.Handle, header interaction.Embed, defaults domain.PartialTask) (domain.Task, *interaction.Handle, error) {
	snap := catalog.Snapshot{
		Subjects:     f.Store.Subjects(),
		SuggestTimes: f.Store.SuggestTimes(),
		Today:        f.today(),
	}

	res, err := interaction.Run(ctx, f.Transport, origin, taskForm(header, snap, f.Timeouts.Form), catalog.Draft{Task: defaults})
	if errors.Is(err, interaction.ErrCancelled) && res.Last != nil {
		if _, uerr := res.Last.Update(ctx, cancelledSurface()); uerr != nil {
			return domain.Task{}, nil, errors.Join(err, uerr)
		}
	}
	if err != nil {
		return domain.Task{}, nil, err
	}
	draft := res.State.Task
	last := res.Last

	date, last, err := Defer(draft.Date, last, func(h *interaction.Handle) (domain.Date, *interaction.Handle, error) {
		return f.SelectDate(ctx, h, header)
	})
	if err != nil {
		return domain.Task{}, nil, fmt.Errorf("select date: %w", err)
	}
	draft.Date = &date

	at, last, err := Defer(draft.Time, last, func(h *interaction.Handle) (domain.TimeOfDay, *interaction.Handle, error) {
		return f.SelectTime(ctx, h, header)
	})
	if err != nil {
		return domain.Task{}, nil, fmt.Errorf("select time: %w", err)
	}
	draft.Time = &at

	existing := ""
	if draft.Details != nil {
		existing = *draft.Details
	}
	details, last, err := f.CaptureDetails(ctx, last, existing)
	if err != nil {
		return domain.Task{}, nil, fmt.Errorf("capture details: %w", err)
	}
	draft.Details = &details

	task, err := draft.Finalize(f.Location)
	if err != nil {
		return domain.Task{}, nil, err
	}
	return task, last, nil
}

func taskForm(header interaction.Embed, snap catalog.Snapshot, timeout time.Duration) interaction.Form[catalog.Draft] {
	fields := make(map[string]interaction.Reducer[catalog.Draft])
	for _, name := range []string{catalog.FieldCategory, catalog.FieldSubject, catalog.FieldDate, catalog.FieldTime} {
		fields[name] = func(d catalog.Draft, values []string) (catalog.Draft, interaction.Effect, error) {
			token, err := interaction.FirstValue(name, values)
			if err != nil {
				return d, interaction.Rerender, err
			}
			d, err = catalog.Apply(d, name, token, snap)
			return d, interaction.Rerender, err
		}
	}
	return interaction.Form[catalog.Draft]{
		Name: "task",
		Render: func(d catalog.Draft) interaction.Surface {
			return renderTaskForm(header, catalog.Build(d, snap))
		},
		Fields:    fields,
		Submit:    submitID,
		CanSubmit: func(d catalog.Draft) bool { return catalog.Build(d, snap).SubmitEnabled },
		Cancel:    cancelID,
		Timeout:   timeout,
	}
}

func renderTaskForm(header interaction.Embed, cat catalog.Catalog) interaction.Surface {
	rows := make([]interaction.Row, 0, len(cat.Fields)+1)
	for _, field := range cat.Fields {
		menu := interaction.SelectMenu{CustomID: field.Name, Placeholder: field.Placeholder}
		for _, c := range field.Choices {
			menu.Options = append(menu.Options, interaction.Option{Label: c.Label, Value: c.Token, Default: c.Default})
		}
		rows = append(rows, interaction.SelectRow(menu))
	}
	rows = append(rows, interaction.ButtonRow(
		submitButton(!cat.SubmitEnabled),
		interaction.Button{CustomID: cancelID, Label: "キャンセル", Style: interaction.ButtonSecondary},
	))
	return withHeader(header, rows...)
}

func cancelledSurface() interaction.Surface {
	return interaction.Surface{
		Embeds: []interaction.Embed{{Title: "キャンセルしました", Color: interaction.ColorDarkRed}},
	}
}
