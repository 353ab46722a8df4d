package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
	"gemhub-inventory-api/pkg/uid"
)

// MongoDiamondRepository implements DiamondRepository using MongoDB.
type MongoDiamondRepository struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	log        *logger.Logger
}

// NewMongoDiamondRepository connects, verifies the connection, and ensures
// the unique (owner, stockId) index that backs the identity invariant.
func NewMongoDiamondRepository(uri, database, collection string, log *logger.Logger) (*MongoDiamondRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "stockId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Warn("failed to create diamond index", "error", err)
	}

	log.Info("connected to MongoDB", "database", database, "collection", collection)
	return &MongoDiamondRepository{
		client:     client,
		db:         db,
		collection: coll,
		log:        log,
	}, nil
}

// ListAvailableStockIDs snapshots the currently AVAILABLE stock ids for the
// owner.
func (r *MongoDiamondRepository) ListAvailableStockIDs(ctx context.Context, owner string) ([]string, error) {
	filter := bson.M{"owner": owner, "availability": model.AvailabilityAvailable}
	values, err := r.collection.Distinct(ctx, "stockId", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot available stock ids: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// BulkUpsert executes the reconciliation ops as one unordered BulkWrite.
func (r *MongoDiamondRepository) BulkUpsert(ctx context.Context, owner string, ops []model.UpsertOp) (model.BulkResult, error) {
	if len(ops) == 0 {
		return model.BulkResult{}, nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		if op.Upsert {
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"owner": owner, "stockId": op.StockID}).
				SetUpdate(upsertPipeline(op.Fields, uid.New())).
				SetUpsert(true))
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(statusFilter(owner, op)).
			SetUpdate(bson.M{"$set": bson.M{"availability": op.Status, "updatedAt": now}}).
			SetUpsert(false))
	}

	res, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		if res == nil {
			return model.BulkResult{}, fmt.Errorf("failed to bulk upsert: %w", err)
		}
		// Unordered batch: some writes may have committed. Report what did.
		r.log.Warn("bulk upsert partially failed", "owner", owner, "error", err)
	}
	return model.BulkResult{Added: res.UpsertedCount, Updated: res.ModifiedCount}, nil
}

// upsertPipeline builds the aggregation-pipeline update for one full upsert.
// updatedAt only advances when an attribute actually changed, so an
// unchanged re-run reports zero modifications and both store backends count
// the same way. On insert, owner and stockId come from the filter's equality
// fields; newID and createdAt are seeded via $ifNull.
func upsertPipeline(fields model.Record, newID string) mongo.Pipeline {
	set := bson.M{"availability": model.AvailabilityAvailable}
	unchanged := bson.A{bson.M{"$eq": bson.A{"$availability", model.AvailabilityAvailable}}}
	for field, value := range fields {
		// $literal keeps raw feed strings from being read as field paths.
		set[string(field)] = bson.M{"$literal": value}
		unchanged = append(unchanged, bson.M{"$eq": bson.A{"$" + string(field), bson.M{"$literal": value}}})
	}
	set["_id"] = bson.M{"$ifNull": bson.A{"$_id", newID}}
	set["createdAt"] = bson.M{"$ifNull": bson.A{"$createdAt", "$$NOW"}}
	set["updatedAt"] = bson.M{"$cond": bson.A{bson.M{"$and": unchanged}, "$updatedAt", "$$NOW"}}
	return mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
}

// statusFilter matches a status-only op against existing listings whose
// availability differs, so flipping to the current status is a no-op.
func statusFilter(owner string, op model.UpsertOp) bson.M {
	return bson.M{
		"owner":        owner,
		"stockId":      op.StockID,
		"availability": bson.M{"$ne": op.Status},
	}
}

// ArchiveByStockIDs flips the given listings to ARCHIVED in one UpdateMany.
func (r *MongoDiamondRepository) ArchiveByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if len(stockIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"owner": owner, "stockId": bson.M{"$in": stockIDs}}
	update := bson.M{"$set": bson.M{"availability": model.AvailabilityArchived, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to archive stale listings: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeleteByStockIDs hard-deletes the given listings in one DeleteMany.
func (r *MongoDiamondRepository) DeleteByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if len(stockIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"owner": owner, "stockId": bson.M{"$in": stockIDs}}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale listings: %w", err)
	}
	return res.DeletedCount, nil
}

// Create inserts one manually entered listing.
func (r *MongoDiamondRepository) Create(ctx context.Context, d *model.Diamond) error {
	existing := r.collection.FindOne(ctx, bson.M{"owner": d.Owner, "stockId": d.StockID})
	if existing.Err() == nil {
		return ErrDuplicateStockID
	}
	if existing.Err() != mongo.ErrNoDocuments {
		return fmt.Errorf("failed to check for existing listing: %w", existing.Err())
	}

	now := time.Now()
	if d.ID == "" {
		d.ID = uid.New()
	}
	if d.Availability == "" {
		d.Availability = model.AvailabilityAvailable
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// FindByID retrieves one listing by its id.
func (r *MongoDiamondRepository) FindByID(ctx context.Context, id string) (*model.Diamond, error) {
	var d model.Diamond
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &d, nil
}

// FindByStockID retrieves one listing by its (owner, stockId) identity.
func (r *MongoDiamondRepository) FindByStockID(ctx context.Context, owner, stockID string) (*model.Diamond, error) {
	var d model.Diamond
	err := r.collection.FindOne(ctx, bson.M{"owner": owner, "stockId": stockID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &d, nil
}

// List returns a page of listings, newest first, optionally filtered by
// owner and a stockId/shape search term.
func (r *MongoDiamondRepository) List(ctx context.Context, filter ListFilter) ([]model.Diamond, int64, error) {
	query := bson.M{}
	if filter.Owner != "" {
		query["owner"] = filter.Owner
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"stockId": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"shape": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	var diamonds []model.Diamond
	if err := cursor.All(ctx, &diamonds); err != nil {
		return nil, 0, fmt.Errorf("failed to decode listings: %w", err)
	}
	return diamonds, total, nil
}

// Update overwrites the provided fields on one listing.
func (r *MongoDiamondRepository) Update(ctx context.Context, id string, fields model.Record) (*model.Diamond, error) {
	set := bson.M{"updatedAt": time.Now()}
	for field, value := range fields {
		set[string(field)] = value
	}

	var d model.Diamond
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return &d, nil
}

// UpdateAvailability sets only the availability state of one listing. The
// order workflow uses this path to flip a purchased listing to SOLD.
func (r *MongoDiamondRepository) UpdateAvailability(ctx context.Context, id, availability string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"availability": availability, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one listing by id.
func (r *MongoDiamondRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns statistics about the inventory collection.
func (r *MongoDiamondRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"status": "connected", "backend": "mongodb"}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_listings"] = total

	available, err := r.collection.CountDocuments(ctx, bson.M{"availability": model.AvailabilityAvailable})
	if err == nil {
		stats["available_listings"] = available
	}

	result := r.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: r.collection.Name()}})
	var collStats bson.M
	if err := result.Decode(&collStats); err == nil {
		if size, ok := collStats["size"].(int64); ok {
			stats["db_size_bytes"] = size
		} else if size, ok := collStats["size"].(int32); ok {
			stats["db_size_bytes"] = int64(size)
		}
	}
	return stats, nil
}

// Client exposes the underlying connection so sibling repositories can
// share it.
func (r *MongoDiamondRepository) Client() *mongo.Client {
	return r.client
}

// Close closes the MongoDB connection.
func (r *MongoDiamondRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
