package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repository.PreferenceStore = (*Store)(nil)

type preferenceDoc struct {
	UID   string `bson:"uid"`
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

func (s *Store) GetPreference(ctx context.Context, uid, key string) (string, error) {
	var doc preferenceDoc
	err := s.preferences.FindOne(ctx, bson.M{"uid": uid, "key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", apperror.NotFound("preference", key)
		}
		return "", fmt.Errorf("mongo: getting preference %s/%s: %w", uid, key, err)
	}
	return doc.Value, nil
}

// SetPreference upserts the value and stamps updatedAt with the server clock.
func (s *Store) SetPreference(ctx context.Context, uid, key, value string) error {
	_, err := s.preferences.UpdateOne(ctx,
		bson.M{"uid": uid, "key": key},
		bson.M{
			"$set":         bson.M{"value": value},
			"$currentDate": bson.M{"updatedAt": true},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: setting preference %s/%s: %w", uid, key, err)
	}
	return nil
}

func (s *Store) DeletePreference(ctx context.Context, uid, key string) error {
	if _, err := s.preferences.DeleteOne(ctx, bson.M{"uid": uid, "key": key}); err != nil {
		return fmt.Errorf("mongo: deleting preference %s/%s: %w", uid, key, err)
	}
	return nil
}
