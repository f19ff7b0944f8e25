// Package handler holds the HTTP handlers. Handlers decode the request, call
// one service method and encode the result; all error-to-status mapping
// lives in writeError so every endpoint answers failures with the same
// {"error": "...", "message": "..."} body.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/identity"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable, e.g. "not_found" or a sign-in code
	Message string `json:"message"` // shown to the reader
}

// writeJSON sets the header, then the status, then encodes data.
// Headers written after the first body byte are ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// status already sent
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// statusFor maps an apperror sentinel to its HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a service error to a status code and writes it.
//
//   - *identity.SignInError → 401 with the sign-in code as "error"
//   - *apperror.AppError    → status by sentinel, its Message as "message"
//   - anything else         → 500 with a generic message; the cause may hold
//     SQL or file paths and is never sent to the client
func writeError(w http.ResponseWriter, err error) {
	var signInErr *identity.SignInError
	if errors.As(err, &signInErr) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   signInErr.Code,
			Message: signInErr.Message(),
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := statusFor(err)
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// maxBodyBytes caps JSON request bodies (settings imports are the largest).
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into dst. A malformed body becomes a
// validation error so writeError answers 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}
