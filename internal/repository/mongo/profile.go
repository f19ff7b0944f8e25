package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repository.ProfileStore = (*Store)(nil)

// profileDoc is the stored shape. Time fields are decoded as raw values so a
// string, a number or a missing field does not fail the whole read.
type profileDoc struct {
	UID         string        `bson:"_id"`
	DisplayName string        `bson:"displayName"`
	Email       string        `bson:"email"`
	PhotoURL    string        `bson:"photoURL"`
	JoinedAt    bson.RawValue `bson:"joinedAt,omitempty"`
	LastLogin   bson.RawValue `bson:"lastLogin,omitempty"`
	Streak      int           `bson:"streak"`
	TotalLogins int           `bson:"totalLogins"`
	Stats       model.Stats   `bson:"stats"`
}

func (d profileDoc) toModel() *model.Profile {
	return &model.Profile{
		UID:         d.UID,
		DisplayName: d.DisplayName,
		Email:       d.Email,
		PhotoURL:    d.PhotoURL,
		JoinedAt:    rawTime(d.JoinedAt),
		LastLogin:   rawTime(d.LastLogin),
		Streak:      d.Streak,
		TotalLogins: d.TotalLogins,
		Stats:       d.Stats,
	}
}

// rawTime accepts BSON dates and RFC 3339 strings; anything else is absent.
func rawTime(v bson.RawValue) *time.Time {
	switch v.Type {
	case bson.TypeDateTime:
		t := v.Time().UTC()
		return &t
	case bson.TypeString:
		t, err := time.Parse(time.RFC3339Nano, v.StringValue())
		if err != nil {
			return nil
		}
		return &t
	}
	return nil
}

// GetProfile retrieves the profile for uid.
// Returns apperror.ErrNotFound if no document exists.
func (s *Store) GetProfile(ctx context.Context, uid string) (*model.Profile, error) {
	var doc profileDoc
	if err := s.profiles.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("profile", uid)
		}
		return nil, fmt.Errorf("mongo: getting profile %s: %w", uid, err)
	}
	return doc.toModel(), nil
}

// InsertProfile writes a complete document.
// Returns apperror.ErrConflict on a duplicate _id.
func (s *Store) InsertProfile(ctx context.Context, p model.NewProfile) error {
	if p.UID == "" {
		return apperror.ValidationFailed("uid", "uid is required")
	}
	now := s.now().UTC()

	doc := bson.D{
		{Key: "_id", Value: p.UID},
		{Key: "displayName", Value: p.DisplayName},
		{Key: "email", Value: p.Email},
		{Key: "photoURL", Value: p.PhotoURL},
		{Key: "streak", Value: p.Streak},
		{Key: "totalLogins", Value: p.TotalLogins},
		{Key: "stats", Value: p.Stats},
	}
	if !p.JoinedAt.IsZero() {
		doc = append(doc, bson.E{Key: "joinedAt", Value: p.JoinedAt.Resolve(now)})
	}
	if !p.LastLogin.IsZero() {
		doc = append(doc, bson.E{Key: "lastLogin", Value: p.LastLogin.Resolve(now)})
	}

	if _, err := s.profiles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("profile", p.UID)
		}
		return fmt.Errorf("mongo: inserting profile %s: %w", p.UID, err)
	}
	return nil
}

// UpdateProfile applies $set for concrete values and $currentDate for the
// server timestamp sentinel. An empty update is a no-op.
func (s *Store) UpdateProfile(ctx context.Context, uid string, u model.ProfileUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	set := bson.M{}
	update := bson.M{}
	switch {
	case u.LastLogin.IsServer():
		update["$currentDate"] = bson.M{"lastLogin": true}
	case !u.LastLogin.IsZero():
		set["lastLogin"] = u.LastLogin.Resolve(time.Time{})
	}
	if u.Streak != nil {
		set["streak"] = *u.Streak
	}
	if u.TotalLogins != nil {
		set["totalLogins"] = *u.TotalLogins
	}
	if len(set) > 0 {
		update["$set"] = set
	}

	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("mongo: updating profile %s: %w", uid, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("profile", uid)
	}
	return nil
}

// UpdateDisplayName sets displayName on the profile document.
func (s *Store) UpdateDisplayName(ctx context.Context, uid, name string) error {
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"displayName": name}})
	if err != nil {
		return fmt.Errorf("mongo: renaming profile %s: %w", uid, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("profile", uid)
	}
	return nil
}

// IncrementStats uses $inc so concurrent reads never lose an update.
func (s *Store) IncrementStats(ctx context.Context, uid string, delta model.Stats) error {
	update := bson.M{"$inc": bson.M{
		"stats.articlesRead": delta.ArticlesRead,
		"stats.timeSpent":    delta.TimeSpent,
		"stats.commentsMade": delta.CommentsMade,
	}}
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("mongo: incrementing stats for %s: %w", uid, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("profile", uid)
	}
	return nil
}

// Leaderboard returns one page of profiles in the requested order,
// with the same tie-breaks as the SQLite store.
func (s *Store) Leaderboard(ctx context.Context, q repository.LeaderboardQuery) ([]model.Profile, error) {
	var sort bson.D
	switch q.SortBy {
	case model.SortByStreak:
		sort = bson.D{{Key: "streak", Value: -1}, {Key: "stats.articlesRead", Value: -1}, {Key: "displayName", Value: 1}, {Key: "_id", Value: 1}}
	case model.SortByArticlesRead:
		sort = bson.D{{Key: "stats.articlesRead", Value: -1}, {Key: "streak", Value: -1}, {Key: "displayName", Value: 1}, {Key: "_id", Value: 1}}
	case model.SortByDisplayName:
		sort = bson.D{{Key: "displayName", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return nil, apperror.ValidationFailed("sortBy", fmt.Sprintf("unknown sort key %q", q.SortBy))
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit)).
		// strength 2: case-insensitive name ordering
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	cur, err := s.profiles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: querying leaderboard: %w", err)
	}
	defer cur.Close(ctx)

	profiles := []model.Profile{}
	for cur.Next(ctx) {
		var doc profileDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decoding leaderboard row: %w", err)
		}
		profiles = append(profiles, *doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterating leaderboard: %w", err)
	}
	return profiles, nil
}
