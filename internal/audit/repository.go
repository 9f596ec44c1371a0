package audit

import (
	"context"
	"fmt"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "booking_conflicts"

type ConflictRepository interface {
	// Save stores records, skipping any already stored for the same event
	// and conflicting booking. Redelivered events therefore add nothing.
	Save(ctx context.Context, records []*model.ConflictRecord) error
}

type mongoConflictRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoConflictRepository(cfg *config.Config) ConflictRepository {
	return &mongoConflictRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoConflictRepository) Save(ctx context.Context, records []*model.ConflictRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"event_id":               rec.EventID,
				"conflicting_booking_id": rec.ConflictingBookingID,
			}).
			SetUpdate(bson.M{"$setOnInsert": rec}).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to save conflict records: %w", err)
	}
	return nil
}
