package mongo

import (
	"context"
	"fmt"
	"meshwar/internal/migrations/mongo/validators"
	mongotx "meshwar/pkg/db/mongo"
	"meshwar/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

var (
	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	CategoriesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique_ci").SetUnique(true).SetCollation(caseInsensitive),
		},
	}

	LocationsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "city", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetCollation(caseInsensitive),
		},
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
	}

	ActivitiesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "location_id", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "current_participants", Value: -1}}},
		{Keys: bson.D{{Key: "start_date", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		// Serves the duplicate-booking lookup inside the admission transaction.
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "activity_id", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{{Key: "activity_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var collections = map[string]collectionDef{
	mongotx.UsersCollection:      {Indexes: UsersIndexes, Validator: validators.UserValidator},
	mongotx.CategoriesCollection: {Indexes: CategoriesIndexes, Validator: validators.CategoryValidator},
	mongotx.LocationsCollection:  {Indexes: LocationsIndexes, Validator: validators.LocationValidator},
	mongotx.ActivitiesCollection: {Indexes: ActivitiesIndexes, Validator: validators.ActivityValidator},
	mongotx.BookingsCollection:   {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
}

// RunMigration creates the collections with their JSON schema validators and indexes.
// It is safe to run repeatedly: existing collections get their validator refreshed.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, name := range CollectionNames() {
		def := collections[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

// CollectionNames lists the managed collections in migration order.
func CollectionNames() []string {
	return []string{
		mongotx.UsersCollection,
		mongotx.CategoriesCollection,
		mongotx.LocationsCollection,
		mongotx.ActivitiesCollection,
		mongotx.BookingsCollection,
	}
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
