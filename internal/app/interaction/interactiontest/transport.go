// Package interactiontest provides a scripted in-memory Transport for tests.
//
// Actions are queued per message before (or while) a session runs; every
// response made through the handed-out handles is recorded as a Call.
package interactiontest

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/taskbot/internal/app/interaction"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// FirstMessage is the id the first reply in a fresh Transport gets.
const FirstMessage = "msg-1"

const Channel = "chan-1"

type Op string

const (
	OpReply   Op = "reply"
	OpUpdate  Op = "update"
	OpAck     Op = "ack"
	OpModal   Op = "modal"
	OpSend    Op = "send"
	OpNothing Op = ""
)

// Call is one recorded response.
type Call struct {
	Op      Op
	Action  int // sequence of the action answered; 0 for origins and sends
	Message string
	Surface interaction.Surface
	Modal   interaction.Modal
	Channel string
	// Live is set when a subscription was open on Message at answer time.
	Live bool
}

type Transport struct {
	mu     sync.Mutex
	calls  []Call
	queues map[string]chan interaction.Action
	live   map[string]int
	modals map[string]chan interaction.ModalSubmission
	nextID int
	seq    int

	pendingModals []map[string]string

	// FailUpdates makes every Update return an error.
	FailUpdates bool
	User        interaction.User
}

func New() *Transport {
	return &Transport{
		queues: make(map[string]chan interaction.Action),
		live:   make(map[string]int),
		modals: make(map[string]chan interaction.ModalSubmission),
		User:   interaction.User{ID: "u-1", Name: "tester"},
	}
}

func (t *Transport) queue(msgID string) chan interaction.Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queues[msgID]
	if !ok {
		q = make(chan interaction.Action, 256)
		t.queues[msgID] = q
	}
	return q
}

func (t *Transport) modalQueue(customID string) chan interaction.ModalSubmission {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.modals[customID]
	if !ok {
		q = make(chan interaction.ModalSubmission, 1)
		t.modals[customID] = q
	}
	return q
}

func (t *Transport) newMessageID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	return fmt.Sprintf("msg-%d", t.nextID)
}

func (t *Transport) record(c Call) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, c)
}

// Origin returns a fresh command-origin handle.
func (t *Transport) Origin() *interaction.Handle {
	return interaction.NewHandle(&responder{t: t}, interaction.OriginCommand)
}

// ComponentOrigin returns a component-origin handle bound to msgID.
func (t *Transport) ComponentOrigin(msgID string) *interaction.Handle {
	return interaction.NewComponentHandle(&responder{t: t, msgID: msgID}, messageRef(msgID))
}

func messageRef(msgID string) domain.MessageRef {
	return domain.MessageRef{ChannelID: Channel, MessageID: msgID}
}

// Subscribed reports whether a subscription is open on msgID.
func (t *Transport) Subscribed(msgID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[msgID] > 0
}

func (t *Transport) enqueue(msgID string, kind interaction.ActionKind, customID string, values []string) {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()
	ref := messageRef(msgID)
	t.queue(msgID) <- interaction.Action{
		Kind:     kind,
		CustomID: customID,
		Values:   values,
		Message:  ref,
		User:     t.User,
		Handle:   interaction.NewComponentHandle(&responder{t: t, msgID: msgID, seq: seq}, ref),
	}
}

// Select queues a select action on msgID.
func (t *Transport) Select(msgID, customID string, values ...string) {
	t.enqueue(msgID, interaction.ActionSelect, customID, values)
}

// Click queues a button press on msgID.
func (t *Transport) Click(msgID, customID string) {
	t.enqueue(msgID, interaction.ActionButton, customID, nil)
}

// SubmitNextModal answers the next modal opened on this transport with values.
// The modal's custom id is only known once it is opened, so the submission waits
// for it in the background.
func (t *Transport) SubmitNextModal(values map[string]string) {
	t.mu.Lock()
	t.pendingModals = append(t.pendingModals, values)
	t.mu.Unlock()
}

func (t *Transport) Subscribe(msg domain.MessageRef) interaction.Subscription {
	q := t.queue(msg.MessageID)
	t.mu.Lock()
	t.live[msg.MessageID]++
	t.mu.Unlock()
	return &subscription{t: t, msgID: msg.MessageID, q: q}
}

func (t *Transport) AwaitModal(ctx context.Context, customID string) (interaction.ModalSubmission, error) {
	select {
	case s := <-t.modalQueue(customID):
		return s, nil
	case <-ctx.Done():
		return interaction.ModalSubmission{}, ctx.Err()
	}
}

func (t *Transport) Send(_ context.Context, channelID domain.ChannelID, s interaction.Surface) (domain.MessageRef, error) {
	id := t.newMessageID()
	t.record(Call{Op: OpSend, Message: id, Surface: s, Channel: channelID})
	return domain.MessageRef{ChannelID: channelID, MessageID: id}, nil
}

// Calls returns every recorded response in order.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallsFor returns the responses of the given op.
func (t *Transport) CallsFor(op Op) []Call {
	var out []Call
	for _, c := range t.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// LastSurface returns the most recent reply or update surface.
func (t *Transport) LastSurface() interaction.Surface {
	calls := t.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Op == OpReply || calls[i].Op == OpUpdate {
			return calls[i].Surface
		}
	}
	return interaction.Surface{}
}

// Answered reports how many responses action seq received.
func (t *Transport) Answered(seq int) int {
	n := 0
	for _, c := range t.Calls() {
		if c.Action == seq {
			n++
		}
	}
	return n
}

type subscription struct {
	t      *Transport
	msgID  string
	q      chan interaction.Action
	closed sync.Once
}

func (s *subscription) Next(ctx context.Context) (interaction.Action, error) {
	select {
	case a := <-s.q:
		return a, nil
	case <-ctx.Done():
		return interaction.Action{}, ctx.Err()
	}
}

func (s *subscription) Close() {
	s.closed.Do(func() {
		s.t.mu.Lock()
		s.t.live[s.msgID]--
		s.t.mu.Unlock()
	})
}

type responder struct {
	t     *Transport
	msgID string
	seq   int
}

func (r *responder) Reply(_ context.Context, s interaction.Surface) (domain.MessageRef, error) {
	id := r.t.newMessageID()
	r.t.record(Call{Op: OpReply, Action: r.seq, Message: id, Surface: s})
	return domain.MessageRef{ChannelID: Channel, MessageID: id}, nil
}

func (r *responder) Update(_ context.Context, s interaction.Surface) (domain.MessageRef, error) {
	if r.t.FailUpdates {
		return domain.MessageRef{}, fmt.Errorf("missing permissions")
	}
	r.t.record(Call{Op: OpUpdate, Action: r.seq, Message: r.msgID, Surface: s, Live: r.t.Subscribed(r.msgID)})
	return domain.MessageRef{ChannelID: Channel, MessageID: r.msgID}, nil
}

func (r *responder) Acknowledge(context.Context) error {
	r.t.record(Call{Op: OpAck, Action: r.seq, Message: r.msgID})
	return nil
}

func (r *responder) Modal(_ context.Context, m interaction.Modal) error {
	r.t.record(Call{Op: OpModal, Action: r.seq, Message: r.msgID, Modal: m})

	r.t.mu.Lock()
	var values map[string]string
	if len(r.t.pendingModals) > 0 {
		values = r.t.pendingModals[0]
		r.t.pendingModals = r.t.pendingModals[1:]
	}
	r.t.seq++
	seq := r.t.seq
	r.t.mu.Unlock()

	if values != nil {
		r.t.modalQueue(m.CustomID) <- interaction.ModalSubmission{
			CustomID: m.CustomID,
			Values:   values,
			User:     r.t.User,
			Handle:   interaction.NewComponentHandle(&responder{t: r.t, msgID: r.msgID, seq: seq}, messageRef(r.msgID)),
		}
	}
	return nil
}
