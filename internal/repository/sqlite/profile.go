package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// compile-time check that *DB implements repository.ProfileStore
var _ repository.ProfileStore = (*DB)(nil)

const profileColumns = `uid, display_name, email, photo_url, joined_at, last_login,
	streak, total_logins, articles_read, time_spent, comments_made`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var (
		p         model.Profile
		joinedAt  sql.NullString
		lastLogin sql.NullString
	)
	err := row.Scan(
		&p.UID,
		&p.DisplayName,
		&p.Email,
		&p.PhotoURL,
		&joinedAt,
		&lastLogin,
		&p.Streak,
		&p.TotalLogins,
		&p.Stats.ArticlesRead,
		&p.Stats.TimeSpent,
		&p.Stats.CommentsMade,
	)
	if err != nil {
		return nil, err
	}
	p.JoinedAt = parseTime(joinedAt)
	p.LastLogin = parseTime(lastLogin)
	return &p, nil
}

// GetProfile retrieves the profile for uid.
// Returns apperror.ErrNotFound if no record exists.
func (db *DB) GetProfile(ctx context.Context, uid string) (*model.Profile, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE uid = ?`, uid)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", uid)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", uid, err)
	}
	return p, nil
}

// InsertProfile writes a complete record.
// Returns apperror.ErrConflict if a record with the same uid already exists.
func (db *DB) InsertProfile(ctx context.Context, p model.NewProfile) error {
	if p.UID == "" {
		return apperror.ValidationFailed("uid", "uid is required")
	}
	now := db.now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UID,
		p.DisplayName,
		p.Email,
		p.PhotoURL,
		nullTime(p.JoinedAt, now),
		nullTime(p.LastLogin, now),
		p.Streak,
		p.TotalLogins,
		p.Stats.ArticlesRead,
		p.Stats.TimeSpent,
		p.Stats.CommentsMade,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", p.UID)
		}
		return fmt.Errorf("sqlite: inserting profile %s: %w", p.UID, err)
	}
	return nil
}

// UpdateProfile sets only the fields present in u. An empty update is a no-op.
// Returns apperror.ErrNotFound if no record exists.
func (db *DB) UpdateProfile(ctx context.Context, uid string, u model.ProfileUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if !u.LastLogin.IsZero() {
		sets = append(sets, "last_login = ?")
		args = append(args, formatTime(u.LastLogin.Resolve(db.now())))
	}
	if u.Streak != nil {
		sets = append(sets, "streak = ?")
		args = append(args, *u.Streak)
	}
	if u.TotalLogins != nil {
		sets = append(sets, "total_logins = ?")
		args = append(args, *u.TotalLogins)
	}
	args = append(args, uid)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE uid = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

// UpdateDisplayName replaces display_name.
// Returns apperror.ErrNotFound if no record exists.
func (db *DB) UpdateDisplayName(ctx context.Context, uid, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET display_name = ? WHERE uid = ?`, name, uid)
	if err != nil {
		return fmt.Errorf("sqlite: renaming profile %s: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

// IncrementStats adds delta to the stored counters in a single statement,
// so concurrent increments never lose an update.
func (db *DB) IncrementStats(ctx context.Context, uid string, delta model.Stats) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE profiles
		 SET articles_read = articles_read + ?,
		     time_spent    = time_spent + ?,
		     comments_made = comments_made + ?
		 WHERE uid = ?`,
		delta.ArticlesRead, delta.TimeSpent, delta.CommentsMade, uid)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing stats for %s: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

// Leaderboard returns one page of profiles in the requested order.
// Ties are broken by the other counters, then by name, then by uid, so the
// order is stable across pages.
func (db *DB) Leaderboard(ctx context.Context, q repository.LeaderboardQuery) ([]model.Profile, error) {
	var orderBy string
	switch q.SortBy {
	case model.SortByStreak:
		orderBy = "streak DESC, articles_read DESC, display_name COLLATE NOCASE ASC, uid ASC"
	case model.SortByArticlesRead:
		orderBy = "articles_read DESC, streak DESC, display_name COLLATE NOCASE ASC, uid ASC"
	case model.SortByDisplayName:
		orderBy = "display_name COLLATE NOCASE ASC, uid ASC"
	default:
		return nil, apperror.ValidationFailed("sortBy", fmt.Sprintf("unknown sort key %q", q.SortBy))
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY `+orderBy+` LIMIT ? OFFSET ?`,
		q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	// rows must be closed or the connection leaks back to the pool dirty
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return profiles, nil
}

// nullTime stores an unset Timestamp as NULL.
func nullTime(ts model.Timestamp, now time.Time) any {
	if ts.IsZero() {
		return nil
	}
	return formatTime(ts.Resolve(now))
}

func expectOneRow(res sql.Result, uid string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("profile", uid)
	}
	return nil
}
