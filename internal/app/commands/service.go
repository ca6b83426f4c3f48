// Package commands adapts slash command invocations to the interactive flows
// and applies their results to the shared store.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/flows"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

var ErrUnknownCommand = errors.New("unknown command")

// PanelDeployer posts the task panel and starts listening on it.
type PanelDeployer interface {
	Deploy(ctx context.Context, channel domain.ChannelID) (domain.MessageRef, error)
}

// Invocation is one slash command call.
type Invocation struct {
	ID      string
	Command string
	Channel domain.ChannelID
	User    interaction.User
	Options map[string]string
	Handle  *interaction.Handle
}

type handlerFunc func(ctx context.Context, inv Invocation) error

type Service struct {
	flows *flows.Flows
	store domain.Store
	loc   *time.Location
	panel PanelDeployer

	handlers map[string]handlerFunc
}

func NewService(f *flows.Flows, panel PanelDeployer) *Service {
	s := &Service{
		flows: f,
		store: f.Store,
		loc:   f.Location,
		panel: panel,
	}
	s.handlers = map[string]handlerFunc{
		CmdAddTask:           s.addTask,
		CmdRemoveTask:        s.removeTask,
		CmdEditTask:          s.editTask,
		CmdAddSubjects:       s.addSubjects,
		CmdRemoveSubject:     s.removeSubject,
		CmdAddSuggestTime:    s.addSuggestTime,
		CmdRemoveSuggestTime: s.removeSuggestTime,
		CmdDeployPanel:       s.deployPanel,
		CmdSetPingChannel:    s.setPingChannel,
		CmdSetPingRole:       s.setPingRole,
		CmdSetLogChannel:     s.setLogChannel,
	}
	return s
}

// Execute runs the handler of inv.Command. Sessions that expire, are cancelled
// or find nothing to act on end quietly; any other failure, a stale selection
// included, is logged and returned.
func (s *Service) Execute(ctx context.Context, inv Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	ctx = observability.WithInvocation(ctx, inv.ID, inv.Command)
	log := observability.LoggerFromContext(ctx).With(
		zap.String("user_id", inv.User.ID),
		zap.String("channel_id", inv.Channel),
	)

	handler, ok := s.handlers[inv.Command]
	if !ok {
		log.Warn("unknown command")
		return fmt.Errorf("%w %q", ErrUnknownCommand, inv.Command)
	}

	log.Info("command started")
	start := time.Now()
	err := handler(ctx, inv)

	switch {
	case err == nil:
		log.Info("command submitted", zap.Duration("elapsed", time.Since(start)))
		return nil
	case errors.Is(err, domain.ErrAbandoned):
		log.Info("command abandoned", zap.Error(err))
		return nil
	case errors.Is(err, interaction.ErrCancelled):
		log.Info("command cancelled")
		return nil
	case errors.Is(err, domain.ErrNothingToSelect):
		log.Info("nothing to select")
		return nil
	case errors.Is(err, domain.ErrStaleReference):
		log.Warn("selection became stale", zap.Error(err))
		return err
	default:
		log.Error("command failed", zap.Error(err))
		return err
	}
}

func (s *Service) commit(ctx context.Context) error {
	if err := s.store.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// failUpdate tells the user on h, still unanswered, that saving failed.
func failUpdate(ctx context.Context, h *interaction.Handle, err error) error {
	if _, uerr := h.Update(ctx, errorSurface("保存に失敗しました")); uerr != nil {
		return errors.Join(err, uerr)
	}
	return err
}

func failReply(ctx context.Context, h *interaction.Handle, err error) error {
	if _, rerr := h.Reply(ctx, errorSurface("保存に失敗しました")); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func header(title string) interaction.Embed {
	return interaction.Embed{Title: title, Color: interaction.ColorDarkBlue}
}

// result is a confirmation surface; it carries no components, which ends the prompt.
func result(embed interaction.Embed) interaction.Surface {
	return interaction.Surface{Embeds: []interaction.Embed{embed}}
}

func errorSurface(title string) interaction.Surface {
	return result(interaction.Embed{Title: title, Color: interaction.ColorRed})
}

func nothingSurface(title string) interaction.Surface {
	s := result(interaction.Embed{Title: title, Color: interaction.ColorDarkBlue})
	s.Ephemeral = true
	return s
}

// emptyOnNothing answers the still-unused origin when a selector had nothing to offer.
func emptyOnNothing(ctx context.Context, err error, origin *interaction.Handle, title string) error {
	if errors.Is(err, domain.ErrNothingToSelect) && !origin.Used() {
		if _, rerr := origin.Reply(ctx, nothingSurface(title)); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}

// staleOnRemoved answers last when the picked entity was removed meanwhile.
func staleOnRemoved(ctx context.Context, err error, last *interaction.Handle) error {
	if errors.Is(err, domain.ErrStaleReference) {
		if _, rerr := last.Update(ctx, errorSurface("選択した項目は既に削除されています")); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}
