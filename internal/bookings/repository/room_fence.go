package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LockRoomForCommit bumps the room's booking_seq and returns the room as it
// stands after the write. Called inside a transaction it makes every commit
// on the same room write the same document, so concurrent commits
// write-conflict and the server retries all but one.
func (r *mongoBookingRepository) LockRoomForCommit(ctx context.Context, roomID string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrRoomNotFound, roomID)
	}

	update := bson.M{"$inc": bson.M{"booking_seq": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	err = r.rooms.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to lock room %s: %w", roomID, err)
	}

	return &room, nil
}
