package panel

import (
	"context"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/daily"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

const (
	prevID = "prev"
	nextID = "next"
)

type viewKind int

const (
	upcomingView viewKind = iota
	archivedView
)

func (k viewKind) title() string {
	if k == archivedView {
		return "過去のタスク一覧"
	}
	return "タスク一覧"
}

func (k viewKind) empty() string {
	if k == archivedView {
		return "ありません"
	}
	return "ありません！:tada:"
}

// openView answers act with a private listing and serves its paging until it
// expires. The listing is taken when the view opens; the audit entry is sent
// once the click has been answered.
func (m *Manager) openView(ctx context.Context, kind viewKind, act interaction.Action) error {
	tasks := m.agenda.Upcoming()
	if kind == archivedView {
		tasks = m.agenda.Archived()
	}

	form := interaction.Form[int]{
		Name: "panel_view",
		Render: func(page int) interaction.Surface {
			return renderView(kind, agenda.Paginate(tasks, page, agenda.DefaultPageSize))
		},
		Fields: map[string]interaction.Reducer[int]{
			prevID: func(page int, _ []string) (int, interaction.Effect, error) {
				return max(page-1, 0), interaction.Rerender, nil
			},
			nextID: func(page int, _ []string) (int, interaction.Effect, error) {
				if !agenda.Paginate(tasks, page, agenda.DefaultPageSize).HasNext {
					return page, interaction.AckOnly, nil
				}
				return page + 1, interaction.Rerender, nil
			},
		},
		Timeout:    m.viewTimeout,
		NewMessage: true,
		Shown: func(ctx context.Context, _ domain.MessageRef) {
			m.audit(ctx, act.User, act.User.Mention()+"さんが"+kind.title()+"を確認しました")
		},
	}
	_, err := interaction.Run(ctx, m.tr, act.Handle, form, 0)
	return err
}

func renderView(kind viewKind, page agenda.Page) interaction.Surface {
	embed := interaction.Embed{Title: kind.title(), Color: interaction.ColorDarkBlue}
	if len(page.Tasks) == 0 {
		embed.Description = kind.empty()
	}
	for _, t := range page.Tasks {
		embed.Fields = append(embed.Fields, daily.TaskField(t))
	}
	return interaction.Surface{
		Embeds: []interaction.Embed{embed},
		Rows: []interaction.Row{interaction.ButtonRow(
			interaction.Button{CustomID: prevID, Label: "前のページ", Style: interaction.ButtonSecondary, Disabled: !page.HasPrev},
			interaction.Button{CustomID: nextID, Label: "次のページ", Style: interaction.ButtonSecondary, Disabled: !page.HasNext},
		)},
		Ephemeral: true,
	}
}

// audit posts a panel usage entry to the log channel. It is skipped when no
// log channel is set; failures are only logged.
func (m *Manager) audit(ctx context.Context, user interaction.User, description string) {
	log := observability.LoggerFromContext(ctx)
	channel := m.store.Settings().LogChannel
	if channel == "" {
		log.Debug("log channel not set, skipping panel audit")
		return
	}

	embed := interaction.Embed{
		Title:       "パネル操作",
		Description: description,
		Color:       interaction.ColorDarkBlue,
		Author:      &interaction.Author{Name: user.Name, IconURL: user.AvatarURL},
		Thumbnail:   user.AvatarURL,
		Timestamp:   m.now(),
	}
	if _, err := m.tr.Send(ctx, channel, interaction.Surface{Embeds: []interaction.Embed{embed}}); err != nil {
		log.Warn("panel audit not sent", zap.Error(err), zap.String("channel_id", channel))
	}
}
