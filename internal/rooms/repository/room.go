package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "rooms"

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error)
	Update(ctx context.Context, id string, update *model.RoomUpdate, at time.Time) (*model.Room, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (*model.Room, error)
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return roomserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		room.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	var room model.Room
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return &room, nil
}

// List returns the rooms matching filter ordered by building, then name.
func (r *mongoRoomRepository) List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "building", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, buildRoomFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := make([]*model.Room, 0)
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *mongoRoomRepository) Update(ctx context.Context, id string, update *model.RoomUpdate, at time.Time) (*model.Room, error) {
	set := buildRoomUpdate(update)
	if len(set) == 0 {
		return nil, roomserrors.ErrEmptyUpdate
	}
	set["updated_at"] = at
	return r.findOneAndSet(ctx, id, set)
}

func (r *mongoRoomRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (*model.Room, error) {
	return r.findOneAndSet(ctx, id, bson.M{"is_active": active, "updated_at": at})
}

func (r *mongoRoomRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room model.Room
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roomserrors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, roomserrors.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return &room, nil
}

func buildRoomFilter(filter model.RoomFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["is_active"] = true
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Building != "" {
		query["building"] = filter.Building
	}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"building": pattern},
			bson.M{"equipment": pattern},
		}
	}
	return query
}

func buildRoomUpdate(update *model.RoomUpdate) bson.M {
	set := bson.M{}
	if update.Name != "" {
		set["name"] = update.Name
	}
	if update.Type != "" {
		set["type"] = update.Type
	}
	if update.Capacity != nil {
		set["capacity"] = *update.Capacity
	}
	if update.Building != "" {
		set["building"] = update.Building
	}
	if update.Floor != nil {
		set["floor"] = *update.Floor
	}
	if update.Equipment != nil {
		set["equipment"] = *update.Equipment
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	return set
}
