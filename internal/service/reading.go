package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// ReadingService records reading activity on profiles. It is the only
// writer of Profile.Stats.
type ReadingService struct {
	store  repository.ProfileStore
	logger *slog.Logger
}

func NewReadingService(store repository.ProfileStore, logger *slog.Logger) *ReadingService {
	return &ReadingService{store: store, logger: logger}
}

// RecordRead counts one article read by uid and adds its estimated reading
// time. It returns the delta that was applied.
func (s *ReadingService) RecordRead(ctx context.Context, uid, text string) (model.Stats, error) {
	if strings.TrimSpace(uid) == "" {
		return model.Stats{}, apperror.ValidationFailed("uid", "uid is required")
	}

	delta := model.Stats{ArticlesRead: 1, TimeSpent: model.ReadingMinutes(text)}
	if err := s.store.IncrementStats(ctx, uid, delta); err != nil {
		return model.Stats{}, fmt.Errorf("recording read for %s: %w", uid, err)
	}

	s.logger.Debug("article read recorded",
		slog.String("uid", uid),
		slog.Int("minutes", delta.TimeSpent),
	)
	return delta, nil
}
