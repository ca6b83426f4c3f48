package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// ErrCancelled is returned when the user pressed the form's cancel control.
var ErrCancelled = errors.New("session cancelled")

// Effect tells the session how to answer an action after a reducer ran.
type Effect int

const (
	// Rerender replaces the message's surface with Render(state).
	Rerender Effect = iota
	// AckOnly acknowledges the action without touching the message.
	AckOnly
)

// Reducer applies the values of one action to the state.
type Reducer[S any] func(state S, values []string) (S, Effect, error)

// Form declares one interaction session: a pure render function and one reducer
// per live custom id.
type Form[S any] struct {
	Name   string
	Render func(S) Surface
	Fields map[string]Reducer[S]

	// Submit is the custom id of the terminal button.
	Submit string
	// CanSubmit gates Submit; nil means always allowed.
	CanSubmit func(S) bool
	// Cancel is an optional custom id ending the session as Cancelled.
	Cancel string

	// Timeout is the session-wide budget counted from the first render.
	Timeout time.Duration
	// NewMessage forces the first render to be a reply even for component origins.
	NewMessage bool

	// Shown, if set, runs once the first render has answered the origin.
	Shown func(ctx context.Context, msg domain.MessageRef)
}

type Outcome int

const (
	Submitted Outcome = iota + 1
	Expired
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "submitted"
	case Expired:
		return "expired"
	case Cancelled:
		return "cancelled"
	default:
		return "running"
	}
}

// Result is the end state of a session. Last is the terminal action's handle,
// still unanswered, for the caller to continue with.
type Result[S any] struct {
	State   S
	Outcome Outcome
	Message domain.MessageRef
	Last    *Handle
	User    User
}

// Run shows form.Render(initial) through origin and processes actions on that
// message until submit, cancel, expiry or an error.
//
// Every action gets exactly one response: a re-render, an acknowledgement, or
// (for the terminal action) none, leaving Last for the caller. On expiry the last
// render stays as it is and ErrAbandoned is returned.
func Run[S any](ctx context.Context, tr Transport, origin *Handle, form Form[S], initial S) (Result[S], error) {
	log := observability.LoggerFromContext(ctx).With(zap.String("form", form.Name))

	res := Result[S]{State: initial}
	if form.Render == nil {
		return res, fmt.Errorf("form %s: no render function", form.Name)
	}

	sctx, cancel := context.WithTimeout(ctx, form.Timeout)
	defer cancel()

	// An in-place render is subscribed before it is answered, so an action on
	// the new surface can never arrive ahead of the subscription.
	var sub Subscription
	if known, ok := origin.Message(); ok && !form.NewMessage && origin.Origin() == OriginComponent {
		sub = tr.Subscribe(known)
	}

	msg, err := origin.Show(sctx, form.Render(initial), form.NewMessage)
	if err != nil {
		if sub != nil {
			sub.Close()
		}
		return res, fmt.Errorf("form %s: show: %w", form.Name, err)
	}
	res.Message = msg

	if sub == nil {
		sub = tr.Subscribe(msg)
	}
	defer sub.Close()

	if form.Shown != nil {
		form.Shown(sctx, msg)
	}

	state := initial
	for {
		act, err := sub.Next(sctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				res.Outcome = Cancelled
				return res, ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				res.Outcome = Expired
				log.Info("session expired")
				return res, domain.ErrAbandoned
			default:
				return res, fmt.Errorf("form %s: await action: %w", form.Name, err)
			}
		}

		switch {
		case form.Submit != "" && act.CustomID == form.Submit:
			if form.CanSubmit != nil && !form.CanSubmit(state) {
				log.Debug("submit while disabled", zap.String("user", act.User.ID))
				if err := act.Handle.Acknowledge(sctx); err != nil {
					return res, err
				}
				continue
			}
			res.Outcome = Submitted
			res.Last = act.Handle
			res.User = act.User
			return res, nil

		case form.Cancel != "" && act.CustomID == form.Cancel:
			res.Outcome = Cancelled
			res.Last = act.Handle
			res.User = act.User
			return res, ErrCancelled
		}

		reduce, ok := form.Fields[act.CustomID]
		if !ok {
			log.Debug("ignoring action", zap.String("custom_id", act.CustomID))
			if err := act.Handle.Acknowledge(sctx); err != nil {
				return res, err
			}
			continue
		}

		next, effect, err := reduce(state, act.Values)
		if err != nil {
			if ackErr := act.Handle.Acknowledge(sctx); ackErr != nil {
				log.Warn("acknowledge failed", zap.Error(ackErr))
			}
			return res, fmt.Errorf("form %s: %w", form.Name, err)
		}
		state = next
		res.State = state

		if effect == AckOnly {
			err = act.Handle.Acknowledge(sctx)
		} else {
			_, err = act.Handle.Update(sctx, form.Render(state))
		}
		if err != nil {
			return res, fmt.Errorf("form %s: %w", form.Name, err)
		}
	}
}

// FirstValue returns the single value of a select action, or an InvalidSelectionError.
func FirstValue(field string, values []string) (string, error) {
	if len(values) == 0 || values[0] == "" {
		return "", &domain.InvalidSelectionError{Field: field}
	}
	return values[0], nil
}
