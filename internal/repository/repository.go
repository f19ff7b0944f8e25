// Package repository declares the storage interfaces the services depend on.
//
// Services only see these interfaces; the concrete stores live in
// sub-packages (sqlite, mongo) and are picked in server.go from config.
package repository

import (
	"context"

	"github.com/sakif/editorialchain/internal/model"
)

// LeaderboardQuery selects one page of the leaderboard.
type LeaderboardQuery struct {
	SortBy model.LeaderboardSort
	Limit  int
	Offset int
}

// ProfileStore is the document store holding one Profile per identity.
//
// GetProfile returns apperror.ErrNotFound (wrapped) when no record exists,
// which the reconciler treats as "new reader".
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*model.Profile, error)
	// InsertProfile writes a full record. Server timestamps are resolved by the store.
	InsertProfile(ctx context.Context, p model.NewProfile) error
	// UpdateProfile changes only the fields set in u.
	UpdateProfile(ctx context.Context, uid string, u model.ProfileUpdate) error
	// UpdateDisplayName replaces the stored display name. Sign-ins never
	// overwrite it, so an edit made here is the name readers see.
	UpdateDisplayName(ctx context.Context, uid, name string) error
	// IncrementStats adds delta to the stored stats.
	IncrementStats(ctx context.Context, uid string, delta model.Stats) error
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]model.Profile, error)
}

// PreferenceStore is a per-user string key/value table (theme, settings).
// GetPreference returns apperror.ErrNotFound when the key was never written.
type PreferenceStore interface {
	GetPreference(ctx context.Context, uid, key string) (string, error)
	SetPreference(ctx context.Context, uid, key, value string) error
	DeletePreference(ctx context.Context, uid, key string) error
}

// SettingsArchive stores exported settings files.
type SettingsArchive interface {
	Put(ctx context.Context, uid, name string, data []byte) (string, error)
}

// NewsCache caches news pages by query key.
// Get returns (nil, false, nil) on a miss.
type NewsCache interface {
	Get(ctx context.Context, key string) (*model.NewsPage, bool, error)
	Set(ctx context.Context, key string, page *model.NewsPage) error
}
