// Package mongo implements the repository interfaces on MongoDB.
//
// Profiles live in the "profiles" collection with the identity UID as _id,
// which makes GetProfile a primary-key lookup and gives InsertProfile its
// duplicate detection for free. Stats are an embedded sub-document, matching
// the shape the frontend reads ("stats.articlesRead").
//
// SERVER TIMESTAMPS:
// UpdateProfile asks MongoDB to fill lastLogin itself with $currentDate.
// InsertOne has no such operator, so InsertProfile resolves the sentinel
// with the store clock.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	profilesCollection    = "profiles"
	preferencesCollection = "preferences"
)

// Connect opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Store implements repository.ProfileStore and repository.PreferenceStore.
type Store struct {
	profiles    *mongo.Collection
	preferences *mongo.Collection
	now         func() time.Time
}

// NewStore uses the given database's "profiles" and "preferences" collections.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		profiles:    db.Collection(profilesCollection),
		preferences: db.Collection(preferencesCollection),
		now:         time.Now,
	}
}

// EnsureIndexes creates the indexes the leaderboard and preference lookups use.
// Creating an index that already exists is a no-op in MongoDB.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "streak", Value: -1}}},
		{Keys: bson.D{{Key: "stats.articlesRead", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: creating profile indexes: %w", err)
	}

	_, err = s.preferences.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating preference index: %w", err)
	}
	return nil
}
