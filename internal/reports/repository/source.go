package repository

import (
	"context"
	"errors"
	"fmt"
	reportserrors "meshwar/internal/reports/errors"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository reads the collections reports are built from. Listing methods
// restrict created_at to [from, to) when either bound is set and return at most
// limit documents, oldest first.
type ReportRepository interface {
	Users(ctx context.Context, from, to time.Time, limit int) ([]*model.User, error)
	Locations(ctx context.Context, from, to time.Time, limit int) ([]*model.Location, error)
	Activities(ctx context.Context, from, to time.Time, limit int) ([]*model.Activity, error)
	Bookings(ctx context.Context, from, to time.Time, limit int) ([]*model.Booking, error)

	Booking(ctx context.Context, id string) (*model.Booking, error)

	// The *ByID lookups skip ids that are malformed or missing.
	UsersByID(ctx context.Context, ids []string) (map[string]*model.User, error)
	CategoriesByID(ctx context.Context, ids []string) (map[string]*model.Category, error)
	LocationsByID(ctx context.Context, ids []string) (map[string]*model.Location, error)
	ActivitiesByID(ctx context.Context, ids []string) (map[string]*model.Activity, error)
}

type mongoReportRepository struct {
	cfg *config.Config
	db  *mongo.Database
}

func NewMongoReportRepository(cfg *config.Config) ReportRepository {
	return &mongoReportRepository{
		cfg: cfg,
		db:  cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (r *mongoReportRepository) Users(ctx context.Context, from, to time.Time, limit int) ([]*model.User, error) {
	users := []*model.User{}
	return users, r.list(ctx, mongotx.UsersCollection, from, to, limit, &users)
}

func (r *mongoReportRepository) Locations(ctx context.Context, from, to time.Time, limit int) ([]*model.Location, error) {
	locations := []*model.Location{}
	return locations, r.list(ctx, mongotx.LocationsCollection, from, to, limit, &locations)
}

func (r *mongoReportRepository) Activities(ctx context.Context, from, to time.Time, limit int) ([]*model.Activity, error) {
	activities := []*model.Activity{}
	return activities, r.list(ctx, mongotx.ActivitiesCollection, from, to, limit, &activities)
}

func (r *mongoReportRepository) Bookings(ctx context.Context, from, to time.Time, limit int) ([]*model.Booking, error) {
	bookings := []*model.Booking{}
	return bookings, r.list(ctx, mongotx.BookingsCollection, from, to, limit, &bookings)
}

func (r *mongoReportRepository) list(ctx context.Context, collection string, from, to time.Time, limit int, out any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if !from.IsZero() || !to.IsZero() {
		rng := bson.M{}
		if !from.IsZero() {
			rng["$gte"] = from
		}
		if !to.IsZero() {
			rng["$lt"] = to
		}
		filter["created_at"] = rng
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (r *mongoReportRepository) Booking(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reportserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.db.Collection(mongotx.BookingsCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reportserrors.ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoReportRepository) UsersByID(ctx context.Context, ids []string) (map[string]*model.User, error) {
	var users []*model.User
	if err := r.byIDs(ctx, mongotx.UsersCollection, ids, &users); err != nil {
		return nil, err
	}
	out := make(map[string]*model.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *mongoReportRepository) CategoriesByID(ctx context.Context, ids []string) (map[string]*model.Category, error) {
	var categories []*model.Category
	if err := r.byIDs(ctx, mongotx.CategoriesCollection, ids, &categories); err != nil {
		return nil, err
	}
	out := make(map[string]*model.Category, len(categories))
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

func (r *mongoReportRepository) LocationsByID(ctx context.Context, ids []string) (map[string]*model.Location, error) {
	var locations []*model.Location
	if err := r.byIDs(ctx, mongotx.LocationsCollection, ids, &locations); err != nil {
		return nil, err
	}
	out := make(map[string]*model.Location, len(locations))
	for _, l := range locations {
		out[l.ID] = l
	}
	return out, nil
}

func (r *mongoReportRepository) ActivitiesByID(ctx context.Context, ids []string) (map[string]*model.Activity, error) {
	var activities []*model.Activity
	if err := r.byIDs(ctx, mongotx.ActivitiesCollection, ids, &activities); err != nil {
		return nil, err
	}
	out := make(map[string]*model.Activity, len(activities))
	for _, a := range activities {
		out[a.ID] = a
	}
	return out, nil
}

func (r *mongoReportRepository) byIDs(ctx context.Context, collection string, ids []string, out any) error {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.db.Collection(collection).Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}
