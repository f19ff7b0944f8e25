package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/identity"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"validation", apperror.ValidationFailed("perPage", "perPage must be at most 100"),
			http.StatusBadRequest, "validation_error", "perPage must be at most 100"},
		{"not found wrapped", fmt.Errorf("loading: %w", apperror.NotFound("profile", "u1")),
			http.StatusNotFound, "not_found", "profile not found with id u1"},
		{"conflict", apperror.Conflict("profile", "u1"), http.StatusConflict, "conflict", "profile conflict with id u1"},
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden, "forbidden", "no"},
		{"unauthorized", apperror.Unauthorized("sign in required"), http.StatusUnauthorized, "unauthorized", "sign in required"},
		{"unavailable", apperror.Unavailable("news API"), http.StatusServiceUnavailable, "unavailable", "news API is unavailable"},
		{"sign-in error", identity.NewSignInError(identity.CodePopupClosed, nil),
			http.StatusUnauthorized, identity.CodePopupClosed, "Failed to sign in. Sign-in was cancelled."},
		{"unknown error hides details", errors.New("sql: database is locked at /var/lib/db"),
			http.StatusInternalServerError, "internal_error", "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestWriteJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
