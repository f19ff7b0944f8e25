package model

// LeaderboardSort selects the ordering of the leaderboard.
type LeaderboardSort string

const (
	SortByStreak       LeaderboardSort = "streak"       // highest first
	SortByArticlesRead LeaderboardSort = "articlesRead" // highest first
	SortByDisplayName  LeaderboardSort = "displayName"  // A→Z
)

// Valid reports whether s is a supported sort key.
func (s LeaderboardSort) Valid() bool {
	switch s {
	case SortByStreak, SortByArticlesRead, SortByDisplayName:
		return true
	}
	return false
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UID          string `json:"uid"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoURL"`
	Streak       int    `json:"streak"`
	ArticlesRead int    `json:"articlesRead"`
}

// LeaderboardPage is the response of a leaderboard query.
type LeaderboardPage struct {
	SortBy  LeaderboardSort    `json:"sortBy"`
	Page    int                `json:"page"`
	PerPage int                `json:"perPage"`
	Entries []LeaderboardEntry `json:"entries"`
}
