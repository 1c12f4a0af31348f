package db

import (
	"context"
	"fmt"
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const DefaultCollection = "power_monitor_data"

// MongoSampleStore keeps one document per sample. The ObjectID doubles as
// the insertion key and gives LastInserted its order.
type MongoSampleStore struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// sampleDoc is the persisted record. Field names are the storage contract.
type sampleDoc struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	DeviceID        string        `bson:"deviceId"`
	TimestampMCU    any           `bson:"timestamp_mcu"`
	Voltage         any           `bson:"voltage"`
	Current         any           `bson:"current"`
	Power           any           `bson:"power"`
	Energy          any           `bson:"energy"`
	RSSI            any           `bson:"rssi"`
	TimestampServer string        `bson:"timestamp_server"`
}

func NewMongoConnection(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func NewMongoSampleStore(client *mongo.Client, database, collection string) (*MongoSampleStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db := client.Database(database)
	coll := db.Collection(collection)

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp_server", Value: 1}}},
		{Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "timestamp_server", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return nil, fmt.Errorf("failed to create indexes on %s: %w", collection, err)
	}

	return &MongoSampleStore{
		client:     client,
		db:         db,
		collection: coll,
	}, nil
}

func (m *MongoSampleStore) Append(ctx context.Context, s domain.Sample) (string, error) {
	doc := toDoc(s)
	doc.ID = bson.NewObjectID()
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (m *MongoSampleStore) AppendBatch(ctx context.Context, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	docs := make([]interface{}, len(samples))
	for i, s := range samples {
		doc := toDoc(s)
		doc.ID = bson.NewObjectID()
		docs[i] = doc
	}

	// ordered keeps insertion order equal to slice order
	_, err := m.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (m *MongoSampleStore) RangeByTimestampServer(ctx context.Context, startInclusive string) ([]domain.Sample, error) {
	cursor, err := m.collection.Find(ctx, rangeFilter(startInclusive), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeSamples(ctx, cursor)
}

func (m *MongoSampleStore) LastInserted(ctx context.Context, n int) ([]domain.Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(n))

	cursor, err := m.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeSamples(ctx, cursor)
}

func (m *MongoSampleStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func rangeFilter(startInclusive string) bson.M {
	return bson.M{"timestamp_server": bson.M{"$gte": startInclusive}}
}

func decodeSamples(ctx context.Context, cursor *mongo.Cursor) ([]domain.Sample, error) {
	defer cursor.Close(ctx)

	var docs []sampleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}

	out := make([]domain.Sample, len(docs))
	for i, d := range docs {
		out[i] = fromDoc(d)
	}
	return out, nil
}

func toDoc(s domain.Sample) sampleDoc {
	return sampleDoc{
		DeviceID:        s.DeviceID,
		TimestampMCU:    storedValue(s.TimestampDevice),
		Voltage:         storedValue(s.Voltage),
		Current:         storedValue(s.Current),
		Power:           storedValue(s.Power),
		Energy:          storedValue(s.Energy),
		RSSI:            storedValue(s.RSSI),
		TimestampServer: s.TimestampServer,
	}
}

func fromDoc(d sampleDoc) domain.Sample {
	return domain.Sample{
		DeviceID:        d.DeviceID,
		TimestampDevice: domain.NewMeasure(d.TimestampMCU),
		Voltage:         domain.NewMeasure(d.Voltage),
		Current:         domain.NewMeasure(d.Current),
		Power:           domain.NewMeasure(d.Power),
		Energy:          domain.NewMeasure(d.Energy),
		RSSI:            domain.NewMeasure(d.RSSI),
		TimestampServer: d.TimestampServer,
	}
}

var _ domain.SampleStore = (*MongoSampleStore)(nil)
