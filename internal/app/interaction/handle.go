package interaction

import (
	"context"
	"errors"
	"sync"

	"github.com/PabloGalante/taskbot/internal/domain"
)

// Origin tells how an interaction was started, which decides how it can show a prompt.
type Origin int

const (
	// OriginCommand is a slash command invocation; it can only reply.
	OriginCommand Origin = iota
	// OriginComponent is a component or modal-from-component; it can update in place.
	OriginComponent
)

var errNoHandle = errors.New("no interaction handle")

// Handle is a one-shot interaction response capability. The first response
// consumes it; any later use fails with domain.ErrHandleConsumed.
type Handle struct {
	mu      sync.Mutex
	r       Responder
	origin  Origin
	message *domain.MessageRef
}

func NewHandle(r Responder, origin Origin) *Handle {
	return &Handle{r: r, origin: origin}
}

// NewComponentHandle returns a component-origin handle for an interaction on msg.
func NewComponentHandle(r Responder, msg domain.MessageRef) *Handle {
	return &Handle{r: r, origin: OriginComponent, message: &msg}
}

func (h *Handle) Origin() Origin {
	if h == nil {
		return OriginCommand
	}
	return h.origin
}

// Message is the message the interaction came from, when known.
func (h *Handle) Message() (domain.MessageRef, bool) {
	if h == nil || h.message == nil {
		return domain.MessageRef{}, false
	}
	return *h.message, true
}

// Used reports whether the handle has already responded.
func (h *Handle) Used() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.r == nil
}

func (h *Handle) take() (Responder, error) {
	if h == nil {
		return nil, errNoHandle
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.r == nil {
		return nil, domain.ErrHandleConsumed
	}
	r := h.r
	h.r = nil
	return r, nil
}

// Show renders s as the live prompt: a reply for command origins or when
// newMessage is set, otherwise an in-place update.
func (h *Handle) Show(ctx context.Context, s Surface, newMessage bool) (domain.MessageRef, error) {
	if h != nil && (newMessage || h.origin == OriginCommand) {
		return h.Reply(ctx, s)
	}
	return h.Update(ctx, s)
}

func (h *Handle) Reply(ctx context.Context, s Surface) (domain.MessageRef, error) {
	r, err := h.take()
	if err != nil {
		return domain.MessageRef{}, err
	}
	ref, err := r.Reply(ctx, s)
	if err != nil {
		return domain.MessageRef{}, &domain.TransportError{Op: "reply", Err: err}
	}
	return ref, nil
}

func (h *Handle) Update(ctx context.Context, s Surface) (domain.MessageRef, error) {
	r, err := h.take()
	if err != nil {
		return domain.MessageRef{}, err
	}
	ref, err := r.Update(ctx, s)
	if err != nil {
		return domain.MessageRef{}, &domain.TransportError{Op: "update", Err: err}
	}
	return ref, nil
}

func (h *Handle) Acknowledge(ctx context.Context) error {
	r, err := h.take()
	if err != nil {
		return err
	}
	if err := r.Acknowledge(ctx); err != nil {
		return &domain.TransportError{Op: "acknowledge", Err: err}
	}
	return nil
}

func (h *Handle) OpenModal(ctx context.Context, m Modal) error {
	r, err := h.take()
	if err != nil {
		return err
	}
	if err := r.Modal(ctx, m); err != nil {
		return &domain.TransportError{Op: "modal", Err: err}
	}
	return nil
}
