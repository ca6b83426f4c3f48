package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/commands"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// subscriptionBuffer bounds the actions queued for one message.
const subscriptionBuffer = 64

// CommandHandler runs one slash command invocation to completion.
type CommandHandler interface {
	Execute(ctx context.Context, inv commands.Invocation) error
}

// Router delivers inbound interactions: commands to the handler, component
// actions to the subscription of their message, modal submissions to their
// waiter. It implements interaction.Transport.
type Router struct {
	api API

	mu     sync.Mutex
	subs   map[string]*subscription
	modals map[string]chan interaction.ModalSubmission

	running sync.WaitGroup
}

func NewRouter(api API) *Router {
	return &Router{
		api:    api,
		subs:   make(map[string]*subscription),
		modals: make(map[string]chan interaction.ModalSubmission),
	}
}

// ─────────────────────────────────────────
// Transport implementation
// ─────────────────────────────────────────

func (r *Router) Subscribe(msg domain.MessageRef) interaction.Subscription {
	sub := &subscription{
		router: r,
		id:     msg.MessageID,
		q:      make(chan interaction.Action, subscriptionBuffer),
	}
	r.mu.Lock()
	r.subs[msg.MessageID] = sub
	r.mu.Unlock()
	return sub
}

func (r *Router) AwaitModal(ctx context.Context, customID string) (interaction.ModalSubmission, error) {
	ch := make(chan interaction.ModalSubmission, 1)
	r.mu.Lock()
	r.modals[customID] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.modals, customID)
		r.mu.Unlock()
	}()

	select {
	case sub := <-ch:
		return sub, nil
	case <-ctx.Done():
		return interaction.ModalSubmission{}, ctx.Err()
	}
}

func (r *Router) Send(ctx context.Context, channelID domain.ChannelID, s interaction.Surface) (domain.MessageRef, error) {
	msg, err := r.api.ChannelMessageSendComplex(channelID, toMessageSend(s), discordgo.WithContext(ctx))
	if err != nil {
		return domain.MessageRef{}, &domain.TransportError{Op: "send", Err: err}
	}
	return domain.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// ─────────────────────────────────────────
// Inbound dispatch
// ─────────────────────────────────────────

// Handle dispatches one interaction. Commands run on their own goroutine under
// ctx; Wait blocks until they have all returned.
func (r *Router) Handle(ctx context.Context, h CommandHandler, i *discordgo.Interaction) {
	log := observability.LoggerFromContext(ctx)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		inv := toInvocation(i, interaction.NewHandle(&responder{api: r.api, i: i}, interaction.OriginCommand))
		r.running.Add(1)
		go func() {
			defer r.running.Done()
			// Execute logs its own failures
			_ = h.Execute(ctx, inv)
		}()

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		act := interaction.Action{
			Kind:     interaction.ActionSelect,
			CustomID: data.CustomID,
			Values:   data.Values,
			User:     toUser(i),
			Handle:   componentHandle(r.api, i),
		}
		if data.ComponentType == discordgo.ButtonComponent {
			act.Kind = interaction.ActionButton
		}
		if i.Message != nil {
			act.Message = domain.MessageRef{ChannelID: i.ChannelID, MessageID: i.Message.ID}
		}
		if !r.deliver(act) {
			log.Debug("no session for component", zap.String("custom_id", data.CustomID), zap.String("message_id", act.Message.MessageID))
			r.ackOrphan(ctx, act.Handle)
		}

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		sub := interaction.ModalSubmission{
			CustomID: data.CustomID,
			Values:   modalValues(data),
			User:     toUser(i),
			Handle:   componentHandle(r.api, i),
		}
		if !r.deliverModal(sub) {
			log.Debug("no waiter for modal", zap.String("custom_id", data.CustomID))
			r.ackOrphan(ctx, sub.Handle)
		}
	}
}

// Wait blocks until every running command has returned.
func (r *Router) Wait() {
	r.running.Wait()
}

func (r *Router) deliver(act interaction.Action) bool {
	r.mu.Lock()
	sub, ok := r.subs[act.Message.MessageID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case sub.q <- act:
		return true
	default:
		return false
	}
}

func (r *Router) deliverModal(s interaction.ModalSubmission) bool {
	r.mu.Lock()
	ch, ok := r.modals[s.CustomID]
	if ok {
		delete(r.modals, s.CustomID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ch <- s
	return true
}

func (r *Router) ackOrphan(ctx context.Context, h *interaction.Handle) {
	if err := h.Acknowledge(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn("acknowledge failed", zap.Error(err))
	}
}

// componentHandle binds the handle to the message the interaction came from,
// which lets an in-place session subscribe before it answers.
func componentHandle(api API, i *discordgo.Interaction) *interaction.Handle {
	r := &responder{api: api, i: i}
	if i.Message == nil {
		return interaction.NewHandle(r, interaction.OriginComponent)
	}
	return interaction.NewComponentHandle(r, domain.MessageRef{ChannelID: i.ChannelID, MessageID: i.Message.ID})
}

func toInvocation(i *discordgo.Interaction, h *interaction.Handle) commands.Invocation {
	data := i.ApplicationCommandData()
	options := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			options[o.Name] = o.StringValue()
		}
	}
	return commands.Invocation{
		ID:      i.ID,
		Command: data.Name,
		Channel: i.ChannelID,
		User:    toUser(i),
		Options: options,
		Handle:  h,
	}
}

type subscription struct {
	router *Router
	id     string
	q      chan interaction.Action
}

func (s *subscription) Next(ctx context.Context) (interaction.Action, error) {
	select {
	case a := <-s.q:
		return a, nil
	case <-ctx.Done():
		return interaction.Action{}, ctx.Err()
	}
}

// Close unregisters the subscription unless a newer one took its message.
func (s *subscription) Close() {
	s.router.mu.Lock()
	defer s.router.mu.Unlock()
	if s.router.subs[s.id] == s {
		delete(s.router.subs, s.id)
	}
}

var _ interaction.Transport = (*Router)(nil)
