package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func channelMention(id domain.ChannelID) string {
	return "<#" + id + ">"
}

func roleMention(id domain.RoleID) string {
	return "<@&" + id + ">"
}

func (s *Service) setPingChannel(ctx context.Context, inv Invocation) error {
	return s.setChannel(ctx, inv, "通知チャンネルを設定しました", func(st *domain.Settings) {
		st.PingChannel = inv.Channel
	})
}

func (s *Service) setLogChannel(ctx context.Context, inv Invocation) error {
	return s.setChannel(ctx, inv, "ログチャンネルを設定しました", func(st *domain.Settings) {
		st.LogChannel = inv.Channel
	})
}

func (s *Service) setChannel(ctx context.Context, inv Invocation, title string, set func(*domain.Settings)) error {
	s.store.UpdateSettings(set)
	if err := s.commit(ctx); err != nil {
		return failReply(ctx, inv.Handle, err)
	}
	_, err := inv.Handle.Reply(ctx, result(interaction.Embed{
		Title:       title,
		Description: channelMention(inv.Channel),
		Color:       interaction.ColorDarkBlue,
	}))
	return err
}

func (s *Service) setPingRole(ctx context.Context, inv Invocation) error {
	current := s.store.Settings().PingRole
	role, last, err := s.flows.SelectRole(ctx, inv.Handle, header("ロールを設定してください"), current)
	if err != nil {
		return err
	}

	s.store.UpdateSettings(func(st *domain.Settings) { st.PingRole = role })
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	_, err = last.Update(ctx, result(interaction.Embed{
		Title:       "ロールを設定しました",
		Description: roleMention(role),
		Color:       interaction.ColorDarkBlue,
	}))
	return err
}

func (s *Service) deployPanel(ctx context.Context, inv Invocation) error {
	if s.panel == nil {
		return deployFailed(ctx, inv.Handle, errors.New("panel is not available"))
	}
	if _, err := s.panel.Deploy(ctx, inv.Channel); err != nil {
		return deployFailed(ctx, inv.Handle, fmt.Errorf("deploy panel: %w", err))
	}

	done := result(interaction.Embed{Title: "パネルをデプロイしました", Color: interaction.ColorDarkGreen})
	done.Ephemeral = true
	_, err := inv.Handle.Reply(ctx, done)
	return err
}

func deployFailed(ctx context.Context, h *interaction.Handle, err error) error {
	if _, rerr := h.Reply(ctx, errorSurface("パネルのデプロイに失敗しました")); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}
