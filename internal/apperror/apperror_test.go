package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		target  error
		message string
	}{
		{"not found", NotFound("profile", "google:42"), ErrNotFound, "profile not found with id google:42"},
		{"conflict", Conflict("profile", "google:42"), ErrConflict, "profile conflict with id google:42"},
		{"validation", ValidationFailed("sortBy", "unknown sort key"), ErrValidation, "unknown sort key"},
		{"forbidden", Forbidden("not your settings"), ErrForbidden, "not your settings"},
		{"unauthorized", Unauthorized("sign in required"), ErrUnauthorized, "sign in required"},
		{"unavailable", Unavailable("news API"), ErrUnavailable, "news API is unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestSentinelsDoNotCrossMatch(t *testing.T) {
	err := NotFound("profile", "google:42")

	assert.NotErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestWrappedAppErrorSurvivesContext(t *testing.T) {
	err := fmt.Errorf("reading theme: %w", ValidationFailed("theme", "theme must be light or dark"))

	assert.ErrorIs(t, err, ErrValidation)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "theme", appErr.Field)
	assert.Equal(t, "theme must be light or dark", appErr.Message)
	assert.Equal(t, "reading theme: theme must be light or dark", err.Error())
}

func TestFieldOnlySetForValidation(t *testing.T) {
	assert.Empty(t, NotFound("profile", "x").Field)
	assert.Empty(t, Unauthorized("x").Field)
	assert.Equal(t, "body", ValidationFailed("body", "Invalid JSON body").Field)
}
