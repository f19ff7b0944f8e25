// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the profile and preference stores
//
// Services take repository interfaces, never a concrete store, so main can
// pick SQLite or MongoDB and tests can pass the in-memory fakes from
// fakes_test.go.
//
// Services return apperror values (ValidationFailed, NotFound, ...) and
// never HTTP status codes; handler/response.go does that translation.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// Paging limits of the leaderboard.
const (
	DefaultPerPage = 5
	MaxPerPage     = 100
)

// LeaderboardService ranks readers.
type LeaderboardService struct {
	store  repository.ProfileStore
	logger *slog.Logger
}

func NewLeaderboardService(store repository.ProfileStore, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{store: store, logger: logger}
}

// Page returns one page of the leaderboard.
//
// An empty sortBy means streak. page < 1 is treated as 1, perPage < 1 as
// DefaultPerPage; perPage above MaxPerPage is a validation error.
func (s *LeaderboardService) Page(ctx context.Context, sortBy model.LeaderboardSort, page, perPage int) (*model.LeaderboardPage, error) {
	if sortBy == "" {
		sortBy = model.SortByStreak
	}
	if !sortBy.Valid() {
		return nil, apperror.ValidationFailed("sortBy",
			fmt.Sprintf("sortBy must be one of %s, %s, %s", model.SortByStreak, model.SortByArticlesRead, model.SortByDisplayName))
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		return nil, apperror.ValidationFailed("perPage",
			fmt.Sprintf("perPage must be %d or less", MaxPerPage))
	}

	offset := (page - 1) * perPage
	profiles, err := s.store.Leaderboard(ctx, repository.LeaderboardQuery{
		SortBy: sortBy,
		Limit:  perPage,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to load leaderboard",
			slog.String("sortBy", string(sortBy)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, model.LeaderboardEntry{
			Rank:         offset + i + 1,
			UID:          p.UID,
			DisplayName:  p.DisplayName,
			PhotoURL:     p.PhotoURL,
			Streak:       p.Streak,
			ArticlesRead: p.Stats.ArticlesRead,
		})
	}

	return &model.LeaderboardPage{
		SortBy:  sortBy,
		Page:    page,
		PerPage: perPage,
		Entries: entries,
	}, nil
}
