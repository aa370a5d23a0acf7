package repository

import (
	"context"
	"fmt"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
)

// BucketCount is one group of the bookings chart aggregation.
type BucketCount struct {
	Start time.Time `bson:"_id"`
	Count int64     `bson:"count"`
}

type StatusCount struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}

type StatsRepository interface {
	// Count counts documents in collection; a non-zero range restricts created_at to [from, to).
	Count(ctx context.Context, collection string, from, to time.Time) (int64, error)
	BookingsByStatus(ctx context.Context) ([]StatusCount, error)
	BookingBuckets(ctx context.Context, from, to time.Time, granularity string) ([]BucketCount, error)
	TopActivities(ctx context.Context, limit int) ([]*model.Activity, error)
}

type mongoStatsRepository struct {
	cfg *config.Config
	db  *mongo.Database
}

func NewMongoStatsRepository(cfg *config.Config) StatsRepository {
	return &mongoStatsRepository{
		cfg: cfg,
		db:  cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (r *mongoStatsRepository) Count(ctx context.Context, collection string, from, to time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if !from.IsZero() || !to.IsZero() {
		filter["created_at"] = createdAtRange(from, to)
	}

	count, err := r.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return count, nil
}

func (r *mongoStatsRepository) BookingsByStatus(ctx context.Context) ([]StatusCount, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.db.Collection(mongotx.BookingsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []StatusCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode booking status counts: %w", err)
	}
	return counts, nil
}

func (r *mongoStatsRepository) BookingBuckets(ctx context.Context, from, to time.Time, granularity string) ([]BucketCount, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	trunc := bson.M{
		"date":     "$created_at",
		"unit":     granularity,
		"timezone": "UTC",
	}
	if granularity == GranularityWeek {
		trunc["startOfWeek"] = "monday"
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": createdAtRange(from, to)}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateTrunc": trunc},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.db.Collection(mongotx.BookingsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate booking buckets: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []BucketCount
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode booking buckets: %w", err)
	}
	return buckets, nil
}

func (r *mongoStatsRepository) TopActivities(ctx context.Context, limit int) ([]*model.Activity, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "current_participants", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.db.Collection(mongotx.ActivitiesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query top activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []*model.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode top activities: %w", err)
	}
	return activities, nil
}

func createdAtRange(from, to time.Time) bson.M {
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lt"] = to
	}
	return r
}
