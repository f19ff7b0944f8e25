package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// ProfileEditor is implemented by *service.ProfileService.
type ProfileEditor interface {
	UpdateDisplayName(ctx context.Context, uid, name string) (string, error)
}

// ProfileHandler serves edits to the signed-in reader's own profile.
type ProfileHandler struct {
	editor ProfileEditor
	logger *slog.Logger
}

func NewProfileHandler(editor ProfileEditor, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{editor: editor, logger: logger}
}

type profileUpdate struct {
	DisplayName string `json:"displayName"`
}

// HandleUpdateProfile renames the signed-in reader.
//
// HTTP: PATCH /api/profile
// Auth: RequireSession
// REQUEST BODY: {"displayName": "Ada Lovelace"}
// RESPONSE:     {"displayName": "Ada Lovelace"}  (trimmed, as stored)
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	var req profileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	name, err := h.editor.UpdateDisplayName(r.Context(), uid, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileUpdate{DisplayName: name})
}
