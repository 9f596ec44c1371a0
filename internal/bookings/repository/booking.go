package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName     = "bookings"
	RoomCollectionName = "rooms"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	rooms      *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindOverlappingConfirmed(ctx context.Context, roomID string, r model.TimeRange) ([]*model.Booking, error)
	FindConfirmedStartingIn(ctx context.Context, roomID string, r model.TimeRange) ([]*model.Booking, error)
	FindByUser(ctx context.Context, userID string, filter config.BookingFilter, now time.Time, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string, filter config.BookingFilter, now time.Time) (int64, error)
	CancelIfConfirmed(ctx context.Context, id string, cancelledBy string, at time.Time) (*model.Booking, error)
	LockRoomForCommit(ctx context.Context, roomID string) (*model.Room, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		rooms:      db.Collection(RoomCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.CommitTimeout),
	}
}

// Create inserts a booking. A duplicate key on the confirmed-slot index is
// reported as ErrConstraintViolation.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", bookingserrors.ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// FindOverlappingConfirmed returns the confirmed bookings of roomID whose
// half-open range intersects tr.
func (r *mongoBookingRepository) FindOverlappingConfirmed(ctx context.Context, roomID string, tr model.TimeRange) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":    roomID,
		"status":     config.Confirmed,
		"start_time": bson.M{"$lt": tr.End},
		"end_time":   bson.M{"$gt": tr.Start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	return r.find(ctx, filter, opts)
}

// FindConfirmedStartingIn returns confirmed bookings whose start falls in tr.
// An empty roomID matches every room.
func (r *mongoBookingRepository) FindConfirmedStartingIn(ctx context.Context, roomID string, tr model.TimeRange) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     config.Confirmed,
		"start_time": bson.M{"$gte": tr.Start, "$lt": tr.End},
	}
	if roomID != "" {
		filter["room_id"] = roomID
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) FindByUser(
	ctx context.Context,
	userID string,
	filter config.BookingFilter,
	now time.Time,
	limit int, offset int64,
) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, buildUserFilter(userID, filter, now), opts)
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string, filter config.BookingFilter, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildUserFilter(userID, filter, now))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by user: %w", err)
	}
	return count, nil
}

func buildUserFilter(userID string, filter config.BookingFilter, now time.Time) bson.M {
	f := bson.M{"user_id": userID}
	switch filter {
	case config.FilterUpcoming:
		f["status"] = config.Confirmed
		f["start_time"] = bson.M{"$gte": now}
	case config.FilterPast:
		f["end_time"] = bson.M{"$lt": now}
	}
	return f
}

// CancelIfConfirmed moves a confirmed booking to cancelled in one
// conditional write, so only one of several concurrent cancels succeeds.
func (r *mongoBookingRepository) CancelIfConfirmed(ctx context.Context, id string, cancelledBy string, at time.Time) (*model.Booking, error) {
	writeCtx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": config.Confirmed}
	update := bson.M{
		"$set": bson.M{
			"status":       config.Cancelled,
			"cancelled_at": at,
			"cancelled_by": cancelledBy,
			"updated_at":   at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(writeCtx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, bookingserrors.ErrAlreadyCancelled
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}
