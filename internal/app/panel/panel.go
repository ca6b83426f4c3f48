// Package panel runs the task panel: a posted message whose buttons open
// private, paged task listings.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
	"github.com/PabloGalante/taskbot/internal/observability"
)

const (
	ShowTasksID         = "show_tasks"
	ShowArchivedTasksID = "show_archived_tasks"
)

// Manager owns the single live panel listener and the views it spawns.
type Manager struct {
	tr          interaction.Transport
	store       domain.Store
	agenda      *agenda.Service
	viewTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	base     context.Context
	stop     context.CancelFunc
	listener *listener
	views    sync.WaitGroup
}

type listener struct {
	ref    domain.MessageRef
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(tr interaction.Transport, store domain.Store, agenda *agenda.Service, viewTimeout time.Duration) *Manager {
	return &Manager{
		tr:          tr,
		store:       store,
		agenda:      agenda,
		viewTimeout: viewTimeout,
		now:         time.Now,
	}
}

// Start binds listeners to ctx and resumes listening on the persisted panel,
// if any.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.base, m.stop = context.WithCancel(ctx)
	m.mu.Unlock()

	if ref := m.store.Settings().Panel; ref != nil && !ref.IsZero() {
		observability.LoggerFromContext(ctx).Info("restoring panel listener", zap.String("message_id", ref.MessageID))
		m.listen(*ref)
	}
}

// Stop ends the listener and waits for it and every open view to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop := m.stop
	l := m.listener
	m.listener = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	if l != nil {
		l.cancel()
		<-l.done
	}
	m.views.Wait()
}

// Deploy posts a new panel to channel, persists it and moves the listener onto it.
func (m *Manager) Deploy(ctx context.Context, channel domain.ChannelID) (domain.MessageRef, error) {
	ref, err := m.tr.Send(ctx, channel, panelSurface())
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("send panel: %w", err)
	}

	m.store.UpdateSettings(func(s *domain.Settings) { s.Panel = &ref })
	if err := m.store.Commit(ctx); err != nil {
		return ref, fmt.Errorf("commit: %w", err)
	}

	m.listen(ref)
	observability.LoggerFromContext(ctx).Info("panel deployed", zap.String("channel_id", channel), zap.String("message_id", ref.MessageID))
	return ref, nil
}

// Current returns the message the listener is bound to.
func (m *Manager) Current() (domain.MessageRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return domain.MessageRef{}, false
	}
	return m.listener.ref, true
}

// listen replaces the running listener with one on ref. The previous one has
// exited by the time the new one subscribes.
func (m *Manager) listen(ref domain.MessageRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.base == nil {
		m.base, m.stop = context.WithCancel(context.Background())
	}
	if prev := m.listener; prev != nil {
		prev.cancel()
		<-prev.done
	}

	base := m.base
	ctx, cancel := context.WithCancel(base)
	l := &listener{ref: ref, cancel: cancel, done: make(chan struct{})}
	m.listener = l
	sub := m.tr.Subscribe(ref)
	go func() {
		defer close(l.done)
		defer sub.Close()
		m.loop(ctx, base, sub)
	}()
}

// loop dispatches panel clicks. Views run under base so they outlive a
// redeploy of the panel.
func (m *Manager) loop(ctx, base context.Context, sub interaction.Subscription) {
	log := observability.LoggerFromContext(ctx)
	for {
		act, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("panel listener stopped", zap.Error(err))
			}
			return
		}

		var kind viewKind
		switch act.CustomID {
		case ShowTasksID:
			kind = upcomingView
		case ShowArchivedTasksID:
			kind = archivedView
		default:
			if err := act.Handle.Acknowledge(ctx); err != nil {
				log.Warn("acknowledge failed", zap.Error(err))
			}
			continue
		}

		m.views.Add(1)
		go func() {
			defer m.views.Done()
			if err := m.openView(base, kind, act); err != nil && !errors.Is(err, domain.ErrAbandoned) && base.Err() == nil {
				log.Error("panel view failed", zap.Error(err))
			}
		}()
	}
}

func panelSurface() interaction.Surface {
	return interaction.Surface{
		Embeds: []interaction.Embed{{
			Title:       "タスク確認",
			Description: "ボタンを押すとタスクを確認できます",
			Color:       interaction.ColorBlue,
		}},
		Rows: []interaction.Row{interaction.ButtonRow(
			interaction.Button{CustomID: ShowTasksID, Label: "タスク一覧", Style: interaction.ButtonSuccess},
			interaction.Button{CustomID: ShowArchivedTasksID, Label: "過去のタスク一覧", Style: interaction.ButtonSecondary},
		)},
	}
}
