package interaction

import (
	"context"

	"github.com/PabloGalante/taskbot/internal/domain"
)

type ActionKind int

const (
	ActionSelect ActionKind = iota
	ActionButton
)

// User is whoever triggered an action.
type User struct {
	ID        string
	Name      string
	AvatarURL string
}

// Mention renders the platform mention markup.
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// Action is one inbound component event on a live message.
type Action struct {
	Kind     ActionKind
	CustomID string
	Values   []string
	Message  domain.MessageRef
	User     User
	Handle   *Handle
}

// ModalSubmission is the single submission of a modal form.
type ModalSubmission struct {
	CustomID string
	Values   map[string]string
	User     User
	Handle   *Handle
}

// Responder answers one inbound interaction. Implementations may assume each
// method is called at most once per interaction; Handle enforces that.
type Responder interface {
	// Reply responds with a new message.
	Reply(ctx context.Context, s Surface) (domain.MessageRef, error)
	// Update responds by editing the message the interaction came from.
	Update(ctx context.Context, s Surface) (domain.MessageRef, error)
	// Acknowledge responds without changing anything.
	Acknowledge(ctx context.Context) error
	// Modal responds by opening a modal form.
	Modal(ctx context.Context, m Modal) error
}

// Subscription yields the actions for one message in arrival order.
type Subscription interface {
	// Next blocks until an action arrives or ctx is done.
	Next(ctx context.Context) (Action, error)
	Close()
}

// Transport is the presentation layer the core depends on.
type Transport interface {
	Subscribe(msg domain.MessageRef) Subscription
	// AwaitModal blocks until the modal with customID is submitted or ctx is done.
	AwaitModal(ctx context.Context, customID string) (ModalSubmission, error)
	// Send posts a new message to a channel outside any interaction.
	Send(ctx context.Context, channelID domain.ChannelID, s Surface) (domain.MessageRef, error)
}
