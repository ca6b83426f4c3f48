package panel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/app/interaction/interactiontest"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	jst = time.FixedZone("JST", 9*60*60)
	now = time.Date(2025, 3, 20, 12, 0, 0, 0, jst)
)

func newManager(t *testing.T, store *memory.Store) (*Manager, *interactiontest.Transport) {
	t.Helper()
	tr := interactiontest.New()
	clock := func() time.Time { return now }
	m := NewManager(tr, store, agenda.NewService(store, jst).WithClock(clock), time.Second)
	m.now = clock
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m, tr
}

func seed(store *memory.Store, upcoming, past int) {
	for i := 0; i < upcoming; i++ {
		store.AddTask(domain.Task{Details: "up", At: now.Add(time.Duration(i+1) * time.Hour)})
	}
	for i := 0; i < past; i++ {
		store.AddTask(domain.Task{Details: "past", At: now.Add(-time.Duration(i+1) * time.Hour)})
	}
}

// waitReply waits for the n-th reply and returns it.
func waitReply(t *testing.T, tr *interactiontest.Transport, n int) interactiontest.Call {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(tr.CallsFor(interactiontest.OpReply)) >= n
	}, time.Second, time.Millisecond)
	return tr.CallsFor(interactiontest.OpReply)[n-1]
}

func TestDeploy(t *testing.T) {
	store := memory.NewStore(nil)
	m, tr := newManager(t, store)

	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	sends := tr.CallsFor(interactiontest.OpSend)
	require.Len(t, sends, 1)
	assert.Equal(t, "chan-7", sends[0].Channel)
	assert.Equal(t, "タスク確認", sends[0].Surface.Embeds[0].Title)
	_, ok := sends[0].Surface.FindButton(ShowTasksID)
	assert.True(t, ok)

	require.NotNil(t, store.Settings().Panel)
	assert.Equal(t, ref, *store.Settings().Panel)
	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, ref, current)
}

func TestShowTasksPages(t *testing.T) {
	store := memory.NewStore(nil)
	seed(store, 7, 2)
	m, tr := newManager(t, store)
	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	tr.Click(ref.MessageID, ShowTasksID)
	first := waitReply(t, tr, 1)

	assert.True(t, first.Surface.Ephemeral)
	embed := first.Surface.Embeds[0]
	assert.Equal(t, "タスク一覧", embed.Title)
	assert.Len(t, embed.Fields, 5)
	prev, _ := first.Surface.FindButton(prevID)
	next, _ := first.Surface.FindButton(nextID)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)

	tr.Click(first.Message, nextID)
	require.Eventually(t, func() bool {
		return len(tr.CallsFor(interactiontest.OpUpdate)) == 1
	}, time.Second, time.Millisecond)
	second := tr.CallsFor(interactiontest.OpUpdate)[0].Surface
	assert.Len(t, second.Embeds[0].Fields, 2)
	next, _ = second.FindButton(nextID)
	assert.True(t, next.Disabled)
}

func TestShowArchivedEmpty(t *testing.T) {
	store := memory.NewStore(nil)
	seed(store, 1, 0)
	m, tr := newManager(t, store)
	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	tr.Click(ref.MessageID, ShowArchivedTasksID)
	embed := waitReply(t, tr, 1).Surface.Embeds[0]

	assert.Equal(t, "過去のタスク一覧", embed.Title)
	assert.Equal(t, "ありません", embed.Description)
	assert.Empty(t, embed.Fields)
}

func TestAuditEntry(t *testing.T) {
	store := memory.NewStore(nil)
	store.UpdateSettings(func(s *domain.Settings) { s.LogChannel = "log" })
	m, tr := newManager(t, store)
	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	tr.Click(ref.MessageID, ShowTasksID)
	waitReply(t, tr, 1)

	var audit *interactiontest.Call
	for _, c := range tr.CallsFor(interactiontest.OpSend) {
		if c.Channel == "log" {
			audit = &c
		}
	}
	require.NotNil(t, audit)
	embed := audit.Surface.Embeds[0]
	assert.Equal(t, "パネル操作", embed.Title)
	assert.Equal(t, "<@u-1>さんがタスク一覧を確認しました", embed.Description)
	require.NotNil(t, embed.Author)
	assert.Equal(t, "tester", embed.Author.Name)
	assert.True(t, now.Equal(embed.Timestamp))
}

// slowLog delays sends to the log channel.
type slowLog struct {
	*interactiontest.Transport
	delay time.Duration
}

func (s slowLog) Send(ctx context.Context, channel domain.ChannelID, surface interaction.Surface) (domain.MessageRef, error) {
	if channel == "log" {
		time.Sleep(s.delay)
	}
	return s.Transport.Send(ctx, channel, surface)
}

func TestClickAnsweredBeforeAudit(t *testing.T) {
	store := memory.NewStore(nil)
	store.UpdateSettings(func(s *domain.Settings) { s.LogChannel = "log" })
	tr := interactiontest.New()
	m := NewManager(slowLog{Transport: tr, delay: 200 * time.Millisecond}, store, agenda.NewService(store, jst), time.Second)
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	clicked := time.Now()
	tr.Click(ref.MessageID, ShowTasksID)
	waitReply(t, tr, 1)
	assert.Less(t, time.Since(clicked), 150*time.Millisecond, "the reply waited for the audit entry")

	require.Eventually(t, func() bool {
		for _, c := range tr.CallsFor(interactiontest.OpSend) {
			if c.Channel == "log" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	var order []string
	for _, c := range tr.Calls() {
		switch {
		case c.Op == interactiontest.OpReply:
			order = append(order, "reply")
		case c.Op == interactiontest.OpSend && c.Channel == "log":
			order = append(order, "audit")
		}
	}
	assert.Equal(t, []string{"reply", "audit"}, order)
}

func TestRedeployReplacesListener(t *testing.T) {
	store := memory.NewStore(nil)
	m, tr := newManager(t, store)
	old, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)
	current, err := m.Deploy(context.Background(), "chan-8")
	require.NoError(t, err)
	require.NotEqual(t, old.MessageID, current.MessageID)

	tr.Click(old.MessageID, ShowTasksID)
	tr.Click(current.MessageID, ShowTasksID)

	waitReply(t, tr, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, tr.CallsFor(interactiontest.OpReply), 1, "the old panel is no longer served")
	assert.Equal(t, current, *store.Settings().Panel)
}

func TestStartRestoresPersistedPanel(t *testing.T) {
	store := memory.NewStore(nil)
	store.UpdateSettings(func(s *domain.Settings) {
		s.Panel = &domain.MessageRef{ChannelID: "chan-7", MessageID: "panel-1"}
	})
	m, tr := newManager(t, store)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "panel-1", current.MessageID)

	tr.Click("panel-1", ShowTasksID)
	assert.Equal(t, "タスク一覧", waitReply(t, tr, 1).Surface.Embeds[0].Title)
}

func TestStopEndsOpenViews(t *testing.T) {
	store := memory.NewStore(nil)
	tr := interactiontest.New()
	m := NewManager(tr, store, agenda.NewService(store, jst), time.Hour)
	m.Start(context.Background())
	ref, err := m.Deploy(context.Background(), "chan-7")
	require.NoError(t, err)

	tr.Click(ref.MessageID, ShowTasksID)
	waitReply(t, tr, 1)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	_, ok := m.Current()
	assert.False(t, ok)
}
