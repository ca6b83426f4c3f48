package commands

import (
	"context"

	"github.com/PabloGalante/taskbot/internal/app/daily"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

const duplicateWarning = ":warning: 同じタスクが既に登録されています"

func (s *Service) addTask(ctx context.Context, inv Invocation) error {
	task, last, err := s.flows.CreateTask(ctx, inv.Handle, header("タスクを追加します"), domain.PartialTask{})
	if err != nil {
		return err
	}

	duplicate := s.store.AddTask(task)
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	embed := interaction.Embed{
		Title:  "タスクを追加しました",
		Fields: []interaction.EmbedField{daily.TaskField(task)},
		Color:  interaction.ColorDarkGreen,
	}
	if duplicate {
		embed.Description = duplicateWarning
	}
	_, err = last.Update(ctx, result(embed))
	return err
}

func (s *Service) removeTask(ctx context.Context, inv Invocation) error {
	task, last, err := s.flows.SelectTask(ctx, inv.Handle, header("削除するタスクを選択"))
	if err != nil {
		return emptyOnNothing(ctx, err, inv.Handle, "タスクがありません")
	}

	if err := s.store.RemoveTask(task); err != nil {
		return staleOnRemoved(ctx, err, last)
	}
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	_, err = last.Update(ctx, result(interaction.Embed{
		Title:  "削除しました",
		Fields: []interaction.EmbedField{daily.TaskField(task)},
		Color:  interaction.ColorDarkRed,
	}))
	return err
}

func (s *Service) editTask(ctx context.Context, inv Invocation) error {
	task, last, err := s.flows.SelectTask(ctx, inv.Handle, header("編集するタスクを選択"))
	if err != nil {
		return emptyOnNothing(ctx, err, inv.Handle, "タスクがありません")
	}

	// stored times may come back in another zone; the form edits local wall time
	modified, last, err := s.flows.CreateTask(ctx, last, header("タスクを編集します"), task.In(s.loc).Partial())
	if err != nil {
		return err
	}

	if err := s.store.ReplaceTask(task, modified); err != nil {
		return staleOnRemoved(ctx, err, last)
	}
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	_, err = last.Update(ctx, result(interaction.Embed{
		Title: "タスクを編集しました",
		Fields: []interaction.EmbedField{
			daily.TaskField(task),
			{Name: "↓", Value: "\u200b"},
			daily.TaskField(modified),
		},
		Color: interaction.ColorDarkGreen,
	}))
	return err
}
