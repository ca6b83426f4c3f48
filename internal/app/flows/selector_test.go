package flows

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/app/interaction/interactiontest"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func thirtyItems() []string {
	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprintf("item-%02d", i)
	}
	return items
}

func stringOptions() SelectorOptions[string] {
	return SelectorOptions[string]{
		Name:    "test",
		Label:   func(s string) string { return s },
		Timeout: time.Second,
	}
}

func buttonState(t *testing.T, s interaction.Surface, id string) bool {
	t.Helper()
	b, ok := s.FindButton(id)
	require.True(t, ok, "no button %q", id)
	return b.Disabled
}

func TestSelectOnePaging(t *testing.T) {
	tr := interactiontest.New()
	msg := interactiontest.FirstMessage
	tr.Select(msg, itemID, "3")  // 1
	tr.Click(msg, nextID)        // 2
	tr.Click(msg, nextID)        // 3: already on the last page
	tr.Select(msg, itemID, "27") // 4
	tr.Click(msg, prevID)        // 5
	tr.Click(msg, nextID)        // 6
	tr.Select(msg, itemID, "28") // 7
	tr.Click(msg, submitID)      // 8

	items := thirtyItems()
	got, last, err := SelectOne(context.Background(), tr, tr.Origin(), items, stringOptions())
	require.NoError(t, err)
	assert.Equal(t, "item-28", got)
	require.NotNil(t, last)

	first := tr.CallsFor(interactiontest.OpReply)[0].Surface
	assert.Equal(t, numbers(0, 24), optionValues(t, first, itemID))
	assert.True(t, buttonState(t, first, prevID))
	assert.False(t, buttonState(t, first, nextID))
	assert.True(t, buttonState(t, first, submitID))

	selected := surfaceFor(t, tr, 1)
	assert.False(t, buttonState(t, selected, submitID))

	page1 := surfaceFor(t, tr, 2)
	assert.Equal(t, numbers(25, 29), optionValues(t, page1, itemID))
	assert.False(t, buttonState(t, page1, prevID))
	assert.True(t, buttonState(t, page1, nextID))
	assert.True(t, buttonState(t, page1, submitID), "navigation clears the selection")
	menu, _ := page1.FindSelect(itemID)
	_, hasDefault := menu.DefaultValue()
	assert.False(t, hasDefault)

	assert.Equal(t, numbers(25, 29), optionValues(t, surfaceFor(t, tr, 3), itemID))

	back := surfaceFor(t, tr, 5)
	assert.Equal(t, numbers(0, 24), optionValues(t, back, itemID))
	assert.True(t, buttonState(t, back, submitID))
}

func TestSelectOneExactPage(t *testing.T) {
	tr := interactiontest.New()
	opts := stringOptions()
	opts.PageSize = 5
	opts.Timeout = 20 * time.Millisecond

	_, _, err := SelectOne(context.Background(), tr, tr.Origin(), thirtyItems()[:5], opts)
	require.ErrorIs(t, err, domain.ErrAbandoned)

	first := tr.CallsFor(interactiontest.OpReply)[0].Surface
	assert.True(t, buttonState(t, first, nextID), "remaining == page size means no next page")
}

func TestSelectOneRejectsTokenOffPage(t *testing.T) {
	tr := interactiontest.New()
	tr.Select(interactiontest.FirstMessage, itemID, "27")

	_, _, err := SelectOne(context.Background(), tr, tr.Origin(), thirtyItems(), stringOptions())

	var invalid *domain.InvalidSelectionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "27", invalid.Token)
}

func TestSelectOneEmpty(t *testing.T) {
	tr := interactiontest.New()
	_, _, err := SelectOne(context.Background(), tr, tr.Origin(), nil, stringOptions())
	assert.ErrorIs(t, err, domain.ErrNothingToSelect)
	assert.Empty(t, tr.Calls())
}

func TestSelectTaskLatestFirst(t *testing.T) {
	tr := interactiontest.New()
	store := memory.NewStore(nil)
	older := domain.Task{Category: domain.CategoryEvent, Details: "遠足", At: time.Date(2025, 4, 1, 9, 0, 0, 0, jst)}
	newer := domain.Task{Category: domain.CategoryExam, Details: "期末", At: time.Date(2025, 7, 1, 9, 0, 0, 0, jst)}
	store.AddTask(older)
	store.AddTask(newer)
	f := newTestFlows(tr, store, time.Now())
	tr.Select(interactiontest.FirstMessage, itemID, "1")
	tr.Click(interactiontest.FirstMessage, submitID)

	got, _, err := f.SelectTask(context.Background(), tr.Origin(), interaction.Embed{Title: "タスクを削除"})
	require.NoError(t, err)
	assert.True(t, older.Equal(got))

	menu, _ := tr.CallsFor(interactiontest.OpReply)[0].Surface.FindSelect(itemID)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "【テスト】 期末", menu.Options[0].Label)
	assert.Equal(t, "2025/07/01 (火) 09:00", menu.Options[0].Description)
}

func TestSelectTaskStaleAfterConcurrentRemoval(t *testing.T) {
	tr := interactiontest.New()
	store := memory.NewStore(nil)
	a := domain.Task{Category: domain.CategoryHomework, Details: "a", At: time.Date(2025, 4, 1, 9, 0, 0, 0, jst)}
	b := domain.Task{Category: domain.CategoryHomework, Details: "b", At: time.Date(2025, 4, 2, 9, 0, 0, 0, jst)}
	store.AddTask(a)
	store.AddTask(b)
	f := newTestFlows(tr, store, time.Now())

	type result struct {
		task domain.Task
		err  error
	}
	done := make(chan result, 1)
	go func() {
		task, _, err := f.SelectTask(context.Background(), tr.Origin(), interaction.Embed{})
		done <- result{task, err}
	}()

	// another session removes b (offered first) while the selector is open
	require.Eventually(t, func() bool { return len(tr.Calls()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, store.RemoveTask(b))
	tr.Select(interactiontest.FirstMessage, itemID, "0")
	tr.Click(interactiontest.FirstMessage, submitID)

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, b.Equal(res.task), "the token resolves against the snapshot it was offered from")
	assert.ErrorIs(t, store.RemoveTask(res.task), domain.ErrStaleReference)
	assert.ErrorIs(t, store.ReplaceTask(res.task, a), domain.ErrStaleReference)
	assert.Equal(t, []domain.Task{a}, store.Tasks())
}

func TestSelectSubjectAndSuggestTime(t *testing.T) {
	tr := interactiontest.New()
	store := memory.NewStore(nil)
	store.AddSubjects("理科", "社会")
	store.PutSuggestTime(domain.SuggestTime{At: domain.TimeOfDay{Hour: 8, Minute: 50}, Label: "1限"})
	f := newTestFlows(tr, store, time.Now())
	msg := interactiontest.FirstMessage

	tr.Select(msg, itemID, "1")
	tr.Click(msg, submitID)
	subject, _, err := f.SelectSubject(context.Background(), tr.Origin(), interaction.Embed{})
	require.NoError(t, err)
	assert.Equal(t, store.Subjects()[1], subject)

	tr.Select("msg-2", itemID, "0")
	tr.Click("msg-2", submitID)
	st, _, err := f.SelectSuggestTime(context.Background(), tr.Origin(), interaction.Embed{})
	require.NoError(t, err)
	assert.Equal(t, "1限", st.Label)
	menu, _ := tr.LastSurface().FindSelect(itemID)
	assert.Equal(t, "1限 (08:50)", menu.Options[0].Label)
}
