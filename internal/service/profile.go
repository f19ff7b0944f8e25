package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/repository"
)

// MaxDisplayNameLength bounds a display name, in characters.
const MaxDisplayNameLength = 50

// ViewRenamer updates the display name in live session views, so /api/me
// shows an edit without a new sign-in. *app.State satisfies it.
type ViewRenamer interface {
	RenameViews(uid, name string)
}

// ProfileService handles edits a reader makes to their own profile.
type ProfileService struct {
	store  repository.ProfileStore
	views  ViewRenamer
	logger *slog.Logger
}

// NewProfileService creates a ProfileService. views may be nil.
func NewProfileService(store repository.ProfileStore, views ViewRenamer, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, views: views, logger: logger}
}

// UpdateDisplayName trims name, validates it and stores it. It returns the
// name that was stored.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, uid, name string) (string, error) {
	if strings.TrimSpace(uid) == "" {
		return "", apperror.ValidationFailed("uid", "uid is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("displayName", "displayName must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", apperror.ValidationFailed("displayName",
			fmt.Sprintf("displayName must be at most %d characters", MaxDisplayNameLength))
	}

	if err := s.store.UpdateDisplayName(ctx, uid, name); err != nil {
		return "", fmt.Errorf("renaming %s: %w", uid, err)
	}
	if s.views != nil {
		s.views.RenameViews(uid, name)
	}

	s.logger.Info("display name updated", slog.String("uid", uid))
	return name, nil
}
