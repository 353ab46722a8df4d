package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemhub-inventory-api/internal/model"
)

// MongoSupplierConfigRepository implements SupplierConfigRepository using
// MongoDB. Configs are keyed by owner (_id), one document per supplier.
type MongoSupplierConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoSupplierConfigRepository builds the repository on an existing
// client connection.
func NewMongoSupplierConfigRepository(client *mongo.Client, database, collection string) *MongoSupplierConfigRepository {
	return &MongoSupplierConfigRepository{
		collection: client.Database(database).Collection(collection),
	}
}

// Get returns the owner's config, or (nil, nil) when none exists.
func (r *MongoSupplierConfigRepository) Get(ctx context.Context, owner string) (*model.SupplierConfig, error) {
	var cfg model.SupplierConfig
	err := r.collection.FindOne(ctx, bson.M{"_id": owner}).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier config: %w", err)
	}
	return &cfg, nil
}

// Save creates or overwrites the owner's config.
func (r *MongoSupplierConfigRepository) Save(ctx context.Context, cfg *model.SupplierConfig) error {
	cfg.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": cfg.Owner},
		cfg,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save supplier config: %w", err)
	}
	return nil
}

// ListAutoSync returns configs with auto-sync enabled and a usable locator.
func (r *MongoSupplierConfigRepository) ListAutoSync(ctx context.Context) ([]model.SupplierConfig, error) {
	filter := bson.M{
		"autoSync": true,
		"$or": bson.A{
			bson.M{"feedUrl": bson.M{"$exists": true, "$ne": ""}},
			bson.M{"ftp.host": bson.M{"$exists": true, "$ne": ""}},
		},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-sync configs: %w", err)
	}
	defer cursor.Close(ctx)

	var configs []model.SupplierConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode auto-sync configs: %w", err)
	}
	return configs, nil
}

// UpdateLastRun records the outcome of one scheduled sync.
func (r *MongoSupplierConfigRepository) UpdateLastRun(ctx context.Context, owner string, at time.Time, status string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": owner},
		bson.M{"$set": bson.M{
			"lastSyncAt":     at,
			"lastSyncStatus": status,
			"updatedAt":      time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to record sync outcome: %w", err)
	}
	return nil
}
