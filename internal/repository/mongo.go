package repository

import (
	"context"
	"time"

	"github.com/airqd/airqd/internal/config"
	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const upsertRetries = 3

// MongoRepository is the production Repository. The consistency rules lean
// on two unique indexes: (location, timestamp) on snapshots makes appends
// idempotent, and (location) on forecasts makes the upsert a single row
// per location even under concurrent writers.
type MongoRepository struct {
	client    *mongo.Client
	dbName    string
	snapshots string
	forecasts string
}

func NewMongoRepository(client *mongo.Client, cfg *config.Config) *MongoRepository {
	return &MongoRepository{
		client:    client,
		dbName:    cfg.DBName,
		snapshots: cfg.CollectionSnapshots,
		forecasts: cfg.CollectionForecasts,
	}
}

// Connect establishes and pings a MongoDB connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctxTimeout, nil); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB!")
	return client, nil
}

func Disconnect(ctx context.Context, client *mongo.Client) error {
	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	logger.Info("Disconnected from MongoDB.")
	return nil
}

// EnsureIndexes creates the unique indexes the write paths depend on.
// Safe to run on every startup; Mongo treats an existing identical index
// as a no-op.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	db := r.client.Database(r.dbName)

	_, err := db.Collection(r.snapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "location", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("location_timestamp_unique"),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(r.forecasts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "location", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("location_unique"),
	})
	return err
}

func (r *MongoRepository) AppendSnapshot(ctx context.Context, s models.Snapshot) error {
	coll := r.client.Database(r.dbName).Collection(r.snapshots)

	_, err := coll.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		// Same (location, timestamp) already stored; append is idempotent.
		logger.Debug("duplicate snapshot for %s at %s, skipping", s.Location, s.Timestamp)
		return nil
	}
	return err
}

func (r *MongoRepository) LatestSnapshot(ctx context.Context, location string) (models.Snapshot, error) {
	coll := r.client.Database(r.dbName).Collection(r.snapshots)

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var s models.Snapshot
	err := coll.FindOne(ctx, bson.M{"location": location}, opts).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return models.Snapshot{}, ErrNotFound
	}
	return s, err
}

func (r *MongoRepository) UpsertForecast(ctx context.Context, fc models.ForecastRecord) error {
	coll := r.client.Database(r.dbName).Collection(r.forecasts)

	doc := bson.M{
		"location": fc.Location,
		"as_of":    fc.AsOf,
		"days":     fc.Days,
	}

	var err error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		_, err = coll.ReplaceOne(ctx, bson.M{"location": fc.Location}, doc,
			options.Replace().SetUpsert(true))
		// Two concurrent upserts for the same location can both miss the
		// existing row and race the insert; the unique index rejects the
		// loser, which then retries and hits the replace path.
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		logger.Debug("forecast upsert conflict for %s, retrying", fc.Location)
	}
	return err
}

func (r *MongoRepository) GetForecast(ctx context.Context, location string) (models.ForecastRecord, error) {
	coll := r.client.Database(r.dbName).Collection(r.forecasts)

	var fc models.ForecastRecord
	err := coll.FindOne(ctx, bson.M{"location": location}).Decode(&fc)
	if err == mongo.ErrNoDocuments {
		return models.ForecastRecord{}, ErrNotFound
	}
	return fc, err
}
