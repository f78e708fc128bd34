package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique login indexes and the parent-key indexes
// the cascade walks. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	loginIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "login", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_login"),
	}

	specs := map[string][]mongo.IndexModel{
		collectionEndUsers:     {loginIndex},
		collectionStudios:      {loginIndex},
		collectionMasterAdmins: {loginIndex},
		collectionClients: {
			{Keys: bson.D{{Key: "studio_id", Value: 1}}},
		},
		collectionProjects: {
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "studio_id", Value: 1}}},
		},
		collectionSections: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "position", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
