package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection holds one document per emoji link.
const DefaultMongoCollection = "emoji-urls"

// linkDocument is the persisted layout. Per-IP counters live in a sub-document
// keyed by the base64url encoded IP, since '.' and '$' are special in Mongo paths.
type linkDocument struct {
	Alias         string           `bson:"_id"`
	URL           string           `bson:"url"`
	CreatedAt     time.Time        `bson:"created-at"`
	CreatorIP     string           `bson:"creation-ip-address"`
	TotalClicks   int64            `bson:"total-clicks"`
	Counter       map[string]int64 `bson:"counter"`
	Password      string           `bson:"password,omitempty"`
	MaxClicks     *int64           `bson:"max-clicks,omitempty"`
	ExpiresAt     *time.Time       `bson:"expires-at,omitempty"`
	Source        string           `bson:"source,omitempty"`
	ConfigPreview string           `bson:"config-preview,omitempty"`
}

// MongoStore is a MongoDB implementation of shortener.Repository.
type MongoStore struct {
	client *mongo.Client
	links  *mongo.Collection
}

// NewMongoStore creates a document-backed link store in database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		links:  client.Database(database).Collection(DefaultMongoCollection),
	}
}

// EnsureIndexes creates the leaderboard index.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "source", Value: 1},
			{Key: "total-clicks", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("create mongo index: %w", err)
	}

	return nil
}

func (m *MongoStore) Insert(ctx context.Context, link *shortener.ShortLink) error {
	_, err := m.links.InsertOne(ctx, toDocument(link))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shortener.ErrAliasTaken
		}

		return err
	}

	return nil
}

func (m *MongoStore) Get(ctx context.Context, alias string) (*shortener.ShortLink, error) {
	var doc linkDocument

	err := m.links.FindOne(ctx, bson.M{"_id": alias}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return fromDocument(&doc), nil
}

// RecordClick increments both counters with one guarded FindOneAndUpdate.
func (m *MongoStore) RecordClick(ctx context.Context, alias, ip string) (int64, error) {
	filter := bson.M{
		"_id": alias,
		"$or": bson.A{
			bson.M{"max-clicks": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$total-clicks", "$max-clicks"}}},
		},
	}
	counterPath := "counter." + ipKey(ip)
	update := bson.M{
		"$inc": bson.M{
			"total-clicks": int64(1),
			counterPath:    int64(1),
		},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"total-clicks": 1})

	var updated struct {
		TotalClicks int64 `bson:"total-clicks"`
	}

	err := m.links.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return updated.TotalClicks, nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	n, err := m.links.CountDocuments(ctx, bson.M{"_id": alias})
	if err != nil {
		return 0, err
	}

	if n > 0 {
		return 0, shortener.ErrLinkExhausted
	}

	return 0, shortener.ErrNotFound
}

func (m *MongoStore) Count(ctx context.Context, filter shortener.Filter) (int64, error) {
	return m.links.CountDocuments(ctx, mongoFilter(filter))
}

func (m *MongoStore) Aggregate(ctx context.Context, filter shortener.Filter) (shortener.Totals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "sum", Value: bson.D{{Key: "$sum", Value: "$total-clicks"}}},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$total-clicks"}}},
		}}},
	}

	cursor, err := m.links.Aggregate(ctx, pipeline)
	if err != nil {
		return shortener.Totals{}, err
	}

	var rows []struct {
		Count int64   `bson:"count"`
		Sum   int64   `bson:"sum"`
		Avg   float64 `bson:"avg"`
	}

	if err := cursor.All(ctx, &rows); err != nil {
		return shortener.Totals{}, err
	}

	if len(rows) == 0 {
		return shortener.Totals{}, nil
	}

	return shortener.Totals{
		Count:     rows[0].Count,
		SumClicks: rows[0].Sum,
		AvgClicks: rows[0].Avg,
	}, nil
}

func (m *MongoStore) Top(ctx context.Context, filter shortener.Filter, n int) ([]*shortener.ShortLink, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "total-clicks", Value: -1},
			{Key: "created-at", Value: 1},
			{Key: "_id", Value: 1},
		}).
		SetLimit(int64(n))

	cursor, err := m.links.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, err
	}

	var docs []linkDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	links := make([]*shortener.ShortLink, len(docs))
	for i := range docs {
		links[i] = fromDocument(&docs[i])
	}

	return links, nil
}

// Shutdown disconnects the client. A client already disconnected by another
// owner is not an error.
func (m *MongoStore) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}

	return nil
}

func mongoFilter(filter shortener.Filter) bson.M {
	if filter.Source == "" {
		return bson.M{}
	}

	return bson.M{"source": filter.Source}
}

// ipKey encodes ip as unpadded base64url, which never contains '.' or '$'.
func ipKey(ip string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(ip))
}

func ipFromKey(key string) string {
	ip, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return key
	}

	return string(ip)
}

func toDocument(link *shortener.ShortLink) *linkDocument {
	counter := make(map[string]int64, len(link.IPClicks))
	for ip, n := range link.IPClicks {
		counter[ipKey(ip)] = n
	}

	return &linkDocument{
		Alias:         link.Alias,
		URL:           link.TargetURL,
		CreatedAt:     link.CreatedAt,
		CreatorIP:     link.CreatorIP,
		TotalClicks:   link.TotalClicks,
		Counter:       counter,
		Password:      link.PasswordHash,
		MaxClicks:     link.MaxClicks,
		ExpiresAt:     link.ExpiresAt,
		Source:        link.Source,
		ConfigPreview: link.ConfigPreview,
	}
}

func fromDocument(doc *linkDocument) *shortener.ShortLink {
	clicks := make(map[string]int64, len(doc.Counter))
	for key, n := range doc.Counter {
		clicks[ipFromKey(key)] = n
	}

	return &shortener.ShortLink{
		Alias:         doc.Alias,
		TargetURL:     doc.URL,
		CreatedAt:     doc.CreatedAt.UTC(),
		CreatorIP:     doc.CreatorIP,
		TotalClicks:   doc.TotalClicks,
		IPClicks:      clicks,
		PasswordHash:  doc.Password,
		MaxClicks:     doc.MaxClicks,
		ExpiresAt:     doc.ExpiresAt,
		Source:        doc.Source,
		ConfigPreview: doc.ConfigPreview,
	}
}

// Compile-time check.
var _ shortener.Repository = (*MongoStore)(nil)
