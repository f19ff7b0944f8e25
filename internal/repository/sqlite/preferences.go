package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/repository"
)

var _ repository.PreferenceStore = (*DB)(nil)

// GetPreference returns the raw stored value.
func (db *DB) GetPreference(ctx context.Context, uid, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE uid = ? AND key = ?`, uid, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("preference", key)
		}
		return "", fmt.Errorf("sqlite: getting preference %s/%s: %w", uid, key, err)
	}
	return value, nil
}

// SetPreference inserts or overwrites the value (UPSERT on the (uid, key) primary key).
func (db *DB) SetPreference(ctx context.Context, uid, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO preferences (uid, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(uid, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		uid, key, value, formatTime(db.now()),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting preference %s/%s: %w", uid, key, err)
	}
	return nil
}

// DeletePreference removes the key. Deleting a missing key is not an error.
func (db *DB) DeletePreference(ctx context.Context, uid, key string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM preferences WHERE uid = ? AND key = ?`, uid, key)
	if err != nil {
		return fmt.Errorf("sqlite: deleting preference %s/%s: %w", uid, key, err)
	}
	return nil
}
