package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "meshwar/internal/bookings/errors"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ActivityCounter is the part of the Activities collection booking admission touches.
// Both counter updates are conditional single-document writes; inside a transaction
// they also make concurrent admissions on one activity conflict with each other.
type ActivityCounter interface {
	FindByID(ctx context.Context, id string) (*model.Activity, error)
	// IncrementParticipants adds one participant unless the limit is reached. It reports
	// false when the activity is missing or full.
	IncrementParticipants(ctx context.Context, id string, now time.Time) (bool, error)
	// DecrementParticipants removes one participant unless the counter is already zero.
	// It reports false when the activity is missing or the counter is zero.
	DecrementParticipants(ctx context.Context, id string, now time.Time) (bool, error)
	// Touch rewrites updated_at only. A transaction that touches the activity conflicts
	// with every concurrent admission on it.
	Touch(ctx context.Context, id string, now time.Time) error
}

// UserLookup checks that a booking's user exists.
type UserLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type mongoActivityCounter struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoActivityCounter(cfg *config.Config) ActivityCounter {
	return &mongoActivityCounter{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(mongotx.ActivitiesCollection),
	}
}

func (r *mongoActivityCounter) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: activity %s", bookingserrors.ErrInvalidID, id)
	}

	var activity model.Activity
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrActivityNotFound, id)
		}
		return nil, fmt.Errorf("failed to find activity: %w", err)
	}
	return &activity, nil
}

func (r *mongoActivityCounter) IncrementParticipants(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: activity %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id": objectID,
		"$or": bson.A{
			bson.M{"participant_limit": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$current_participants", "$participant_limit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"current_participants": 1},
		"$set": bson.M{"updated_at": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to increment participants: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoActivityCounter) DecrementParticipants(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: activity %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":                  objectID,
		"current_participants": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"current_participants": -1},
		"$set": bson.M{"updated_at": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to decrement participants: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoActivityCounter) Touch(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: activity %s", bookingserrors.ErrInvalidID, id)
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"updated_at": now}})
	if err != nil {
		return fmt.Errorf("failed to touch activity: %w", err)
	}
	return nil
}

type mongoUserLookup struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserLookup(cfg *config.Config) UserLookup {
	return &mongoUserLookup{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(mongotx.UsersCollection),
	}
}

func (r *mongoUserLookup) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: user %s", bookingserrors.ErrInvalidID, id)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return count > 0, nil
}
