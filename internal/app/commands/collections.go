package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/PabloGalante/taskbot/internal/app/diff"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func subjectLine(name string) string { return name }

func suggestTimeLine(st domain.SuggestTime) string {
	return fmt.Sprintf("%s: %s", st.Label, st.At)
}

// mark returns the Op for elements equal to one of changed, Unchanged otherwise.
func mark[T comparable](op diff.Op, changed ...T) func(T) diff.Op {
	return func(v T) diff.Op {
		if slices.Contains(changed, v) {
			return op
		}
		return diff.Unchanged
	}
}

// withSuggestTime puts st back into the time-ordered list, ahead of an entry at
// the same time.
func withSuggestTime(list []domain.SuggestTime, st domain.SuggestTime) []domain.SuggestTime {
	i := slices.IndexFunc(list, func(e domain.SuggestTime) bool { return !e.At.Before(st.At) })
	if i < 0 {
		i = len(list)
	}
	return slices.Insert(list, i, st)
}

func (s *Service) addSubjects(ctx context.Context, inv Invocation) error {
	names := domain.SplitList(inv.Options[optSubjects])
	if len(names) == 0 {
		_, err := inv.Handle.Reply(ctx, errorSurface("教科を指定してください"))
		return err
	}

	added := s.store.AddSubjects(names...)
	if err := s.commit(ctx); err != nil {
		return failReply(ctx, inv.Handle, err)
	}

	lines := diff.Mark(s.store.Subjects(), subjectLine, mark(diff.Added, added...))
	_, err := inv.Handle.Reply(ctx, result(interaction.Embed{
		Title:       "追加しました",
		Description: diff.Render(lines),
		Color:       interaction.ColorDarkGreen,
	}))
	return err
}

func (s *Service) removeSubject(ctx context.Context, inv Invocation) error {
	subject, last, err := s.flows.SelectSubject(ctx, inv.Handle, header("削除したい教科を選択してください"))
	if err != nil {
		return emptyOnNothing(ctx, err, inv.Handle, "教科がありません")
	}

	if err := s.store.RemoveSubject(subject); err != nil {
		return staleOnRemoved(ctx, err, last)
	}
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	listing := s.store.Subjects()
	i, _ := slices.BinarySearch(listing, subject)
	listing = slices.Insert(listing, i, subject)

	lines := diff.Mark(listing, subjectLine, mark(diff.Removed, subject))
	_, err = last.Update(ctx, result(interaction.Embed{
		Title:       "削除しました",
		Description: diff.Render(lines),
		Color:       interaction.ColorDarkGreen,
	}))
	return err
}

func (s *Service) addSuggestTime(ctx context.Context, inv Invocation) error {
	label := inv.Options[optLabel]
	at, last, err := s.flows.SelectTime(ctx, inv.Handle, header(fmt.Sprintf("よく使う時間(%s)を追加", label)))
	if err != nil {
		return err
	}

	put := domain.SuggestTime{At: at, Label: label}
	replaced, ok := s.store.PutSuggestTime(put)
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	listing := s.store.SuggestTimes()
	addOp := mark(diff.Added, put)
	op := addOp
	if ok && replaced != put {
		listing = withSuggestTime(listing, replaced)
		op = func(st domain.SuggestTime) diff.Op {
			if st == replaced {
				return diff.Removed
			}
			return addOp(st)
		}
	}

	lines := diff.Mark(listing, suggestTimeLine, op)
	_, err = last.Update(ctx, result(interaction.Embed{
		Title:       fmt.Sprintf("%s(%s)を追加しました", label, at),
		Description: diff.Render(lines),
		Color:       interaction.ColorDarkGreen,
	}))
	return err
}

func (s *Service) removeSuggestTime(ctx context.Context, inv Invocation) error {
	picked, last, err := s.flows.SelectSuggestTime(ctx, inv.Handle, header("よく使う時間を削除"))
	if err != nil {
		return emptyOnNothing(ctx, err, inv.Handle, "よく使う時間がありません")
	}

	removed, err := s.store.RemoveSuggestTime(picked.At)
	if err != nil {
		return staleOnRemoved(ctx, err, last)
	}
	if err := s.commit(ctx); err != nil {
		return failUpdate(ctx, last, err)
	}

	listing := withSuggestTime(s.store.SuggestTimes(), removed)
	lines := diff.Mark(listing, suggestTimeLine, mark(diff.Removed, removed))
	_, err = last.Update(ctx, result(interaction.Embed{
		Title:       fmt.Sprintf("%s(%s)を削除しました", removed.Label, removed.At),
		Description: diff.Render(lines),
		Color:       interaction.ColorDarkGreen,
	}))
	return err
}
