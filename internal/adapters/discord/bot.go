// Package discord connects the interaction core to Discord through discordgo.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/commands"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// Bot owns the gateway session and its Router.
type Bot struct {
	session *discordgo.Session
	router  *Router
	guildID string
}

// New creates a bot for token. Commands are registered in guildID, or globally
// when it is empty.
func New(token, guildID string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return &Bot{session: s, router: NewRouter(s), guildID: guildID}, nil
}

// Router is the transport the flows and jobs talk through.
func (b *Bot) Router() *Router {
	return b.router
}

// Run opens the gateway, registers the commands once ready and dispatches
// interactions to h until ctx is done. onReady runs after registration.
func (b *Bot) Run(ctx context.Context, h CommandHandler, onReady func(context.Context)) error {
	log := observability.LoggerFromContext(ctx)

	ready := make(chan *discordgo.Ready, 1)
	removeReady := b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		select {
		case ready <- r:
		default:
		}
	})
	defer removeReady()

	removeInteraction := b.session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.router.Handle(ctx, h, ic.Interaction)
	})
	defer removeInteraction()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer b.router.Wait()
	defer b.session.Close()

	select {
	case r := <-ready:
		log.Info("logged in", zap.String("user", r.User.Username))
		if err := b.register(r.User.ID); err != nil {
			return err
		}
		if onReady != nil {
			onReady(ctx)
		}
	case <-ctx.Done():
		return nil
	}

	<-ctx.Done()
	log.Info("discord bot shutting down")
	return nil
}

func (b *Bot) register(appID string) error {
	cmds := ApplicationCommands(commands.Definitions())
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, cmds); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	observability.Logger().Info("commands registered", zap.Int("count", len(cmds)), zap.String("guild_id", b.guildID))
	return nil
}

// ApplicationCommands converts command definitions to slash commands.
func ApplicationCommands(defs []commands.Definition) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, d := range defs {
		cmd := &discordgo.ApplicationCommand{
			Name:        d.Name,
			Description: d.Description,
			Type:        discordgo.ChatApplicationCommand,
		}
		for _, o := range d.Options {
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        o.Name,
				Description: o.Description,
				Required:    o.Required,
			})
		}
		out = append(out, cmd)
	}
	return out
}
