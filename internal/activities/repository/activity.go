package repository

import (
	"context"
	"errors"
	"fmt"
	activitieserrors "meshwar/internal/activities/errors"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoActivityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	locations  *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	FindByID(ctx context.Context, id string) (*model.Activity, error)
	FindAll(ctx context.Context, filter model.ActivityFilter, limit int, offset int64) ([]*model.Activity, error)
	Count(ctx context.Context, filter model.ActivityFilter) (int64, error)
	// Update writes every field except current_participants. A positive participant
	// limit is only applied while it is not below current_participants.
	Update(ctx context.Context, id string, activity *model.Activity) error
	Delete(ctx context.Context, id string) error

	LocationExists(ctx context.Context, locationID string) (bool, error)
	CountBookings(ctx context.Context, id string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoActivityRepository(cfg *config.Config) ActivityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoActivityRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.ActivitiesCollection),
		locations:  db.Collection(mongotx.LocationsCollection),
		bookings:   db.Collection(mongotx.BookingsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	activity.ID = ""
	activity.CurrentParticipants = 0
	activity.CreatedAt = now
	activity.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		activity.ID = oid.Hex()
	}
	return nil
}

func (r *mongoActivityRepository) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", activitieserrors.ErrInvalidID, id)
	}

	var activity model.Activity
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", activitieserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find activity: %w", err)
	}
	return &activity, nil
}

func (r *mongoActivityRepository) FindAll(ctx context.Context, filter model.ActivityFilter, limit int, offset int64) ([]*model.Activity, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []*model.Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}

func (r *mongoActivityRepository) Count(ctx context.Context, filter model.ActivityFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func (r *mongoActivityRepository) Update(ctx context.Context, id string, activity *model.Activity) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", activitieserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if activity.ParticipantLimit > 0 {
		filter["current_participants"] = bson.M{"$lte": activity.ParticipantLimit}
	}
	update := bson.M{
		"$set": bson.M{
			"location_id":       activity.LocationID,
			"title":             activity.Title,
			"description":       activity.Description,
			"price":             activity.Price,
			"start_date":        activity.StartDate,
			"end_date":          activity.EndDate,
			"participant_limit": activity.ParticipantLimit,
			"updated_at":        time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", activitieserrors.ErrLimitBelowParticipants, id)
	}
	return fmt.Errorf("%w: %s", activitieserrors.ErrNotFound, id)
}

func (r *mongoActivityRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", activitieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", activitieserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoActivityRepository) LocationExists(ctx context.Context, locationID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(locationID)
	if err != nil {
		return false, fmt.Errorf("%w: location %s", activitieserrors.ErrInvalidID, locationID)
	}

	count, err := r.locations.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up location: %w", err)
	}
	return count > 0, nil
}

func (r *mongoActivityRepository) CountBookings(ctx context.Context, id string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.bookings.CountDocuments(ctx, bson.M{"activity_id": id})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings for activity: %w", err)
	}
	return count, nil
}

func (r *mongoActivityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(filter model.ActivityFilter) bson.M {
	query := bson.M{}
	if filter.LocationID != "" {
		query["location_id"] = filter.LocationID
	}
	return query
}
