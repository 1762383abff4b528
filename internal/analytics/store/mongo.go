package store

import (
	"context"
	"time"

	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultEventsCollection receives one document per link event.
const DefaultEventsCollection = "link-events"

type eventDocument struct {
	ID         string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	Alias      string    `bson:"alias"`
	TargetURL  string    `bson:"target-url"`
	Source     string    `bson:"source,omitempty"`
	ClientIP   string    `bson:"client-ip,omitempty"`
	UserAgent  string    `bson:"user-agent,omitempty"`
	Referrer   string    `bson:"referrer,omitempty"`
	OccurredAt time.Time `bson:"occurred-at"`
}

// Mongo appends link events to a collection keyed by event ID.
type Mongo struct {
	events *mongo.Collection
}

// NewMongo creates a click log store in database.
func NewMongo(client *mongo.Client, database string) *Mongo {
	return &Mongo{events: client.Database(database).Collection(DefaultEventsCollection)}
}

func (m *Mongo) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	return m.insert(ctx, &eventDocument{
		ID:         event.ID,
		Kind:       "created",
		Alias:      event.Alias,
		TargetURL:  event.TargetURL,
		Source:     event.Source,
		ClientIP:   event.ClientIP,
		UserAgent:  event.UserAgent,
		OccurredAt: event.CreatedAt,
	})
}

func (m *Mongo) SaveLinkClicked(ctx context.Context, event *analytics.LinkClickedEvent) error {
	return m.insert(ctx, &eventDocument{
		ID:         event.ID,
		Kind:       "clicked",
		Alias:      event.Alias,
		TargetURL:  event.TargetURL,
		Source:     event.Source,
		ClientIP:   event.ClientIP,
		UserAgent:  event.UserAgent,
		Referrer:   event.Referrer,
		OccurredAt: event.ClickedAt,
	})
}

func (m *Mongo) insert(ctx context.Context, doc *eventDocument) error {
	_, err := m.events.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}

	return err
}

var _ analytics.Store = (*Mongo)(nil)
