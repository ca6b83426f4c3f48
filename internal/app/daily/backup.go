package daily

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

// BackupJob sends the whole store as a JSON attachment to the log channel.
type BackupJob struct {
	tr    interaction.Transport
	store domain.Store
	loc   *time.Location
}

func NewBackupJob(tr interaction.Transport, store domain.Store, loc *time.Location) *BackupJob {
	return &BackupJob{tr: tr, store: store, loc: loc}
}

func (j *BackupJob) Name() string {
	return "backup"
}

func (j *BackupJob) Run(ctx context.Context, now time.Time) error {
	log := observability.LoggerFromContext(ctx).With(zap.String("job", j.Name()))

	channel := j.store.Settings().LogChannel
	if channel == "" {
		log.Warn("log channel not set, skipping")
		return nil
	}

	snap := j.store.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	surface := interaction.Surface{
		Embeds: []interaction.Embed{{
			Title: fmt.Sprintf("データのバックアップ (%s)", domain.FormatDateTime(now.In(j.loc))),
		}},
		Files: []interaction.File{{
			Name:        strconv.FormatInt(now.Unix(), 10) + ".json",
			ContentType: "application/json",
			Data:        data,
		}},
	}
	if _, err := j.tr.Send(ctx, channel, surface); err != nil {
		return fmt.Errorf("send backup: %w", err)
	}

	log.Info("backup sent", zap.Int("bytes", len(data)))
	return nil
}
