package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// API is the part of *discordgo.Session the transport uses.
type API interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(i *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var errNoMessage = errors.New("interaction has no message to update")

type responder struct {
	api API
	i   *discordgo.Interaction
}

func (r *responder) respond(ctx context.Context, typ discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) error {
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{Type: typ, Data: data}, discordgo.WithContext(ctx))
}

func (r *responder) Reply(ctx context.Context, s interaction.Surface) (domain.MessageRef, error) {
	if err := r.respond(ctx, discordgo.InteractionResponseChannelMessageWithSource, toResponseData(s)); err != nil {
		return domain.MessageRef{}, err
	}
	msg, err := r.api.InteractionResponse(r.i, discordgo.WithContext(ctx))
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (r *responder) Update(ctx context.Context, s interaction.Surface) (domain.MessageRef, error) {
	if r.i.Message == nil {
		return domain.MessageRef{}, errNoMessage
	}
	if err := r.respond(ctx, discordgo.InteractionResponseUpdateMessage, toResponseData(s)); err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChannelID: r.i.ChannelID, MessageID: r.i.Message.ID}, nil
}

func (r *responder) Acknowledge(ctx context.Context) error {
	return r.respond(ctx, discordgo.InteractionResponseDeferredMessageUpdate, nil)
}

func (r *responder) Modal(ctx context.Context, m interaction.Modal) error {
	return r.respond(ctx, discordgo.InteractionResponseModal, toModalData(m))
}

var _ interaction.Responder = (*responder)(nil)
