package daily

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// maxEmbedFields is the platform limit of fields per embed.
const maxEmbedFields = 25

// ReminderJob posts tomorrow's tasks to the ping channel, mentioning the ping role.
type ReminderJob struct {
	tr     interaction.Transport
	store  domain.Store
	agenda *agenda.Service
}

func NewReminderJob(tr interaction.Transport, store domain.Store, agenda *agenda.Service) *ReminderJob {
	return &ReminderJob{tr: tr, store: store, agenda: agenda}
}

func (j *ReminderJob) Name() string {
	return "reminder"
}

func (j *ReminderJob) Run(ctx context.Context, now time.Time) error {
	log := observability.LoggerFromContext(ctx).With(zap.String("job", j.Name()))

	settings := j.store.Settings()
	if settings.PingChannel == "" || settings.PingRole == "" {
		log.Warn("ping channel or role not set, skipping")
		return nil
	}

	tasks := j.agenda.DueTomorrowFrom(now)
	if len(tasks) == 0 {
		log.Info("nothing due tomorrow")
		return nil
	}

	for start := 0; start < len(tasks); start += maxEmbedFields {
		chunk := tasks[start:min(start+maxEmbedFields, len(tasks))]
		if _, err := j.tr.Send(ctx, settings.PingChannel, reminderSurface(settings.PingRole, chunk)); err != nil {
			return fmt.Errorf("send reminder: %w", err)
		}
	}
	log.Info("reminder sent", zap.Int("tasks", len(tasks)))
	return nil
}

func reminderSurface(role domain.RoleID, tasks []domain.Task) interaction.Surface {
	embed := interaction.Embed{
		Title:       "タスク通知",
		Description: "明日のタスクをお知らせします！",
		Color:       interaction.ColorRed,
	}
	for _, t := range tasks {
		embed.Fields = append(embed.Fields, TaskField(t))
	}
	return interaction.Surface{
		Content: "<@&" + role + ">",
		Embeds:  []interaction.Embed{embed},
	}
}

// TaskField renders a task as an embed field.
func TaskField(t domain.Task) interaction.EmbedField {
	return interaction.EmbedField{Name: t.Title(), Value: t.When()}
}
