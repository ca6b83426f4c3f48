// Package flows holds the reusable interactive prompts the commands are built
// from: the task form and its date, time and details sub-flows, the paged
// selector and the small single-choice pickers.
package flows

import (
	"time"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// Custom ids shared by every prompt.
const (
	submitID = "submit"
	cancelID = "cancel"
	prevID   = "prev"
	nextID   = "next"
)

const submitLabel = "送信"

type Timeouts struct {
	Form    time.Duration
	Picker  time.Duration
	Details time.Duration
}

// Flows carries the dependencies shared by every prompt.
type Flows struct {
	Transport interaction.Transport
	Store     domain.Store
	Location  *time.Location
	Timeouts  Timeouts

	// Now is replaced in tests.
	Now func() time.Time
}

func New(tr interaction.Transport, store domain.Store, loc *time.Location, timeouts Timeouts) *Flows {
	return &Flows{
		Transport: tr,
		Store:     store,
		Location:  loc,
		Timeouts:  timeouts,
		Now:       time.Now,
	}
}

func (f *Flows) today() domain.Date {
	return domain.DateOf(f.Now().In(f.Location))
}

// Defer returns current untouched when it is set. Otherwise it runs sub on the
// last terminal handle, continuing on the same message, and returns the
// resolved value with the nested session's terminal handle.
func Defer[T any](current *T, last *interaction.Handle, sub func(*interaction.Handle) (T, *interaction.Handle, error)) (T, *interaction.Handle, error) {
	if current != nil {
		return *current, last, nil
	}
	return sub(last)
}

func submitButton(disabled bool) interaction.Button {
	return interaction.Button{
		CustomID: submitID,
		Label:    submitLabel,
		Style:    interaction.ButtonPrimary,
		Disabled: disabled,
	}
}

func withHeader(header interaction.Embed, rows ...interaction.Row) interaction.Surface {
	s := interaction.Surface{Rows: rows}
	if header.Title != "" || header.Description != "" {
		s.Embeds = []interaction.Embed{header}
	}
	return s
}
