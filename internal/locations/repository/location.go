package repository

import (
	"context"
	"errors"
	"fmt"
	locationserrors "meshwar/internal/locations/errors"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var cityCollation = &options.Collation{Locale: "en", Strength: 2}

type mongoLocationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	categories *mongo.Collection
	activities *mongo.Collection
	txManager  mongotx.TransactionManager
}

type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	FindByID(ctx context.Context, id string) (*model.Location, error)
	FindAll(ctx context.Context, filter model.LocationFilter, limit int, offset int64) ([]*model.Location, error)
	Count(ctx context.Context, filter model.LocationFilter) (int64, error)
	Update(ctx context.Context, id string, location *model.Location) error
	Delete(ctx context.Context, id string) error

	CategoryExists(ctx context.Context, categoryID string) (bool, error)
	// CountActivities reports how many activities are held at the location.
	CountActivities(ctx context.Context, id string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoLocationRepository(cfg *config.Config) LocationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLocationRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.LocationsCollection),
		categories: db.Collection(mongotx.CategoriesCollection),
		activities: db.Collection(mongotx.ActivitiesCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoLocationRepository) Create(ctx context.Context, location *model.Location) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	location.ID = ""
	location.CreatedAt = now
	location.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		location.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", locationserrors.ErrInvalidID, id)
	}

	var location model.Location
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&location)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", locationserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return &location, nil
}

func (r *mongoLocationRepository) FindAll(ctx context.Context, filter model.LocationFilter, limit int, offset int64) ([]*model.Location, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(cityCollation)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer cursor.Close(ctx)

	locations := []*model.Location{}
	if err = cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locations, nil
}

func (r *mongoLocationRepository) Count(ctx context.Context, filter model.LocationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Count().SetCollation(cityCollation)
	count, err := r.collection.CountDocuments(ctx, buildFilter(filter), opts)
	if err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return count, nil
}

func (r *mongoLocationRepository) Update(ctx context.Context, id string, location *model.Location) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", locationserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":        location.Name,
			"description": location.Description,
			"category_id": location.CategoryID,
			"address":     location.Address,
			"city":        location.City,
			"latitude":    location.Latitude,
			"longitude":   location.Longitude,
			"image_urls":  location.ImageURLs,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", locationserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoLocationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", locationserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", locationserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoLocationRepository) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return false, fmt.Errorf("%w: category %s", locationserrors.ErrInvalidID, categoryID)
	}

	count, err := r.categories.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up category: %w", err)
	}
	return count > 0, nil
}

func (r *mongoLocationRepository) CountActivities(ctx context.Context, id string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.activities.CountDocuments(ctx, bson.M{"location_id": id})
	if err != nil {
		return 0, fmt.Errorf("failed to count activities for location: %w", err)
	}
	return count, nil
}

func (r *mongoLocationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(filter model.LocationFilter) bson.M {
	query := bson.M{}
	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.CategoryID != "" {
		query["category_id"] = filter.CategoryID
	}
	return query
}
