package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReaders(store *fakeProfileStore, n int) {
	for i := 1; i <= n; i++ {
		store.put(model.Profile{
			UID:         fmt.Sprintf("u%02d", i),
			DisplayName: fmt.Sprintf("Reader %02d", i),
			Streak:      i,
			TotalLogins: i,
			Stats:       model.Stats{ArticlesRead: 100 - i},
		})
	}
}

func TestLeaderboard_Defaults(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	seedReaders(store, 12)
	svc := NewLeaderboardService(store, testLogger())

	page, err := svc.Page(context.Background(), "", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, model.SortByStreak, page.SortBy)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	require.Len(t, page.Entries, 5)
	assert.Equal(t, "u12", page.Entries[0].UID)
	assert.Equal(t, 12, page.Entries[0].Streak)
	assert.Equal(t, 1, page.Entries[0].Rank)
	assert.Equal(t, 5, page.Entries[4].Rank)
}

func TestLeaderboard_SecondPageRanks(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	seedReaders(store, 12)
	svc := NewLeaderboardService(store, testLogger())

	page, err := svc.Page(context.Background(), model.SortByArticlesRead, 3, 5)
	require.NoError(t, err)

	assert.Equal(t, 10, store.lastBoard.Offset)
	assert.Equal(t, 5, store.lastBoard.Limit)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, 11, page.Entries[0].Rank)
	assert.Equal(t, "u11", page.Entries[0].UID)
	assert.Equal(t, 89, page.Entries[0].ArticlesRead)
}

func TestLeaderboard_PastTheEnd(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	seedReaders(store, 3)
	svc := NewLeaderboardService(store, testLogger())

	page, err := svc.Page(context.Background(), model.SortByDisplayName, 4, 5)
	require.NoError(t, err)
	assert.NotNil(t, page.Entries)
	assert.Empty(t, page.Entries)
}

func TestLeaderboard_Validation(t *testing.T) {
	svc := NewLeaderboardService(newFakeProfileStore(time.Now()), testLogger())

	_, err := svc.Page(context.Background(), "loudest", 1, 5)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Page(context.Background(), model.SortByStreak, 1, MaxPerPage+1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLeaderboard_StoreError(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	store.boardErr = errStoreDown
	svc := NewLeaderboardService(store, testLogger())

	_, err := svc.Page(context.Background(), model.SortByStreak, 1, 5)
	assert.ErrorIs(t, err, errStoreDown)
}
