package flows

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

const detailsField = "details"

// CaptureDetails opens the details modal from last, pre-filled with existing,
// and waits for its single submission.
func (f *Flows) CaptureDetails(ctx context.Context, last *interaction.Handle, existing string) (string, *interaction.Handle, error) {
	modal := interaction.Modal{
		CustomID: "details:" + uuid.NewString(),
		Title:    "詳細入力",
		Fields: []interaction.TextField{{
			CustomID:    detailsField,
			Label:       "詳細",
			Style:       interaction.TextShort,
			Value:       existing,
			Placeholder: "詳細を入力してください",
			Required:    true,
		}},
	}

	mctx, cancel := context.WithTimeout(ctx, f.Timeouts.Details)
	defer cancel()

	if err := last.OpenModal(mctx, modal); err != nil {
		return "", nil, err
	}
	sub, err := f.Transport.AwaitModal(mctx, modal.CustomID)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			observability.LoggerFromContext(ctx).Info("details modal expired", zap.String("modal", modal.CustomID))
			return "", nil, domain.ErrAbandoned
		}
		return "", nil, err
	}
	return sub.Values[detailsField], sub.Handle, nil
}
