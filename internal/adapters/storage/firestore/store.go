package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/taskbot/internal/adapters/storage/memory"
	"github.com/PabloGalante/taskbot/internal/domain"
)

// DefaultCollection holds one document per shared collection.
const DefaultCollection = "taskbot"

const (
	docTasks        = "tasks"
	docSubjects     = "subjects"
	docSuggestTimes = "suggest_times"
	docSettings     = "settings"
)

// Persister stores snapshots in Firestore.
type Persister struct {
	client     *firestore.Client
	collection string
}

// NewPersister creates a Firestore persister.
// Uses the project passed (TASKBOT_STORAGE_GCP_PROJECT).
func NewPersister(ctx context.Context, projectID string) (*Persister, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return NewPersisterWithClient(client, DefaultCollection), nil
}

// NewPersisterWithClient wraps an existing client, e.g. one pointed at the emulator.
func NewPersisterWithClient(client *firestore.Client, collection string) *Persister {
	return &Persister{client: client, collection: collection}
}

func (p *Persister) Close() error {
	return p.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (p *Persister) col() *firestore.CollectionRef {
	return p.client.Collection(p.collection)
}

func (p *Persister) doc(name string) *firestore.DocumentRef {
	return p.col().Doc(name)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type taskDoc struct {
	Category string    `firestore:"category"`
	Subject  string    `firestore:"subject"`
	Details  string    `firestore:"details"`
	At       time.Time `firestore:"datetime"`
}

type tasksDoc struct {
	Tasks []taskDoc `firestore:"tasks"`
}

type subjectsDoc struct {
	Names []string `firestore:"names"`
}

type suggestTimeDoc struct {
	Hour   int    `firestore:"hour"`
	Minute int    `firestore:"minute"`
	Label  string `firestore:"label"`
}

type suggestTimesDoc struct {
	Times []suggestTimeDoc `firestore:"times"`
}

type settingsDoc struct {
	PingChannel  string `firestore:"ping_channel"`
	PingRole     string `firestore:"ping_role"`
	LogChannel   string `firestore:"log_channel"`
	PanelChannel string `firestore:"panel_channel"`
	PanelMessage string `firestore:"panel_message"`
}

func toDocs(snap *domain.Snapshot) map[string]any {
	tasks := tasksDoc{Tasks: make([]taskDoc, 0, len(snap.Tasks))}
	for _, t := range snap.Tasks {
		tasks.Tasks = append(tasks.Tasks, taskDoc{
			Category: t.Category.Key(),
			Subject:  t.Subject.Name,
			Details:  t.Details,
			At:       t.At,
		})
	}

	times := suggestTimesDoc{Times: make([]suggestTimeDoc, 0, len(snap.SuggestTimes))}
	for _, st := range snap.SuggestTimes {
		times.Times = append(times.Times, suggestTimeDoc{Hour: st.At.Hour, Minute: st.At.Minute, Label: st.Label})
	}

	settings := settingsDoc{
		PingChannel: snap.Settings.PingChannel,
		PingRole:    snap.Settings.PingRole,
		LogChannel:  snap.Settings.LogChannel,
	}
	if panel := snap.Settings.Panel; panel != nil {
		settings.PanelChannel = panel.ChannelID
		settings.PanelMessage = panel.MessageID
	}

	subjects := snap.Subjects
	if subjects == nil {
		subjects = []string{}
	}

	return map[string]any{
		docTasks:        tasks,
		docSubjects:     subjectsDoc{Names: subjects},
		docSuggestTimes: times,
		docSettings:     settings,
	}
}

// ─────────────────────────────────────────
// Persister implementation
// ─────────────────────────────────────────

// Save writes every collection document in one transaction.
func (p *Persister) Save(ctx context.Context, snap *domain.Snapshot) error {
	docs := toDocs(snap)
	err := p.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for name, data := range docs {
			if err := tx.Set(p.doc(name), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("firestore Save: %w", err)
	}
	return nil
}

// Load reads the collection documents. It returns memory.ErrNoSnapshot when
// the collection has none of them.
func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	iter := p.col().Documents(ctx)
	defer iter.Stop()

	snap := &domain.Snapshot{}
	found := 0
	for {
		ds, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			if status.Code(err) == codes.NotFound {
				return nil, memory.ErrNoSnapshot
			}
			return nil, fmt.Errorf("firestore Load: %w", err)
		}
		if err := decodeInto(snap, ds); err != nil {
			return nil, fmt.Errorf("firestore Load %s: %w", ds.Ref.ID, err)
		}
		found++
	}
	if found == 0 {
		return nil, memory.ErrNoSnapshot
	}
	return snap, nil
}

func decodeInto(snap *domain.Snapshot, ds *firestore.DocumentSnapshot) error {
	switch ds.Ref.ID {
	case docTasks:
		var doc tasksDoc
		if err := ds.DataTo(&doc); err != nil {
			return err
		}
		for _, t := range doc.Tasks {
			var c domain.Category
			if err := c.UnmarshalText([]byte(t.Category)); err != nil {
				return err
			}
			snap.Tasks = append(snap.Tasks, domain.Task{
				Category: c,
				Subject:  domain.SubjectOf(t.Subject),
				Details:  t.Details,
				At:       t.At,
			})
		}
	case docSubjects:
		var doc subjectsDoc
		if err := ds.DataTo(&doc); err != nil {
			return err
		}
		snap.Subjects = doc.Names
	case docSuggestTimes:
		var doc suggestTimesDoc
		if err := ds.DataTo(&doc); err != nil {
			return err
		}
		for _, st := range doc.Times {
			snap.SuggestTimes = append(snap.SuggestTimes, domain.SuggestTime{
				At:    domain.TimeOfDay{Hour: st.Hour, Minute: st.Minute},
				Label: st.Label,
			})
		}
	case docSettings:
		var doc settingsDoc
		if err := ds.DataTo(&doc); err != nil {
			return err
		}
		snap.Settings = domain.Settings{
			PingChannel: doc.PingChannel,
			PingRole:    doc.PingRole,
			LogChannel:  doc.LogChannel,
		}
		if doc.PanelMessage != "" {
			snap.Settings.Panel = &domain.MessageRef{ChannelID: doc.PanelChannel, MessageID: doc.PanelMessage}
		}
	}
	return nil
}

var _ memory.Persister = (*Persister)(nil)
