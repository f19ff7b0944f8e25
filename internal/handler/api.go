package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/auth"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/service"
)

// Leaderboard is implemented by *service.LeaderboardService.
type Leaderboard interface {
	Page(ctx context.Context, sortBy model.LeaderboardSort, page, perPage int) (*model.LeaderboardPage, error)
}

// NewsSource is implemented by *news.Client.
type NewsSource interface {
	Latest(ctx context.Context, q model.NewsQuery) (*model.NewsPage, error)
}

// ReadingRecorder is implemented by *service.ReadingService.
type ReadingRecorder interface {
	RecordRead(ctx context.Context, uid, text string) (model.Stats, error)
}

// Preferences is implemented by *service.PreferenceService.
type Preferences interface {
	GetTheme(ctx context.Context, uid string) (model.Theme, error)
	SetTheme(ctx context.Context, uid string, t model.Theme) error
	ToggleTheme(ctx context.Context, uid string) (model.Theme, error)
	GetSettings(ctx context.Context, uid string) (model.Settings, error)
	SaveSettings(ctx context.Context, uid string, s model.Settings) error
	ResetSettings(ctx context.Context, uid string) (model.Settings, error)
	ExportSettings(ctx context.Context, uid string) (*service.ExportResult, error)
	ImportSettings(ctx context.Context, uid string, data []byte) (model.Settings, error)
}

// APIHandler serves the reader-facing JSON API.
// news may be nil when no news API key is configured.
type APIHandler struct {
	board   Leaderboard
	news    NewsSource
	reading ReadingRecorder
	prefs   Preferences
	logger  *slog.Logger
}

func NewAPIHandler(board Leaderboard, news NewsSource, reading ReadingRecorder, prefs Preferences, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		board:   board,
		news:    news,
		reading: reading,
		prefs:   prefs,
		logger:  logger,
	}
}

// requireUID reads the identity set by auth.RequireSession.
func requireUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in required"))
		return "", false
	}
	return uid, true
}

// intParam parses an optional integer query parameter; missing means 0.
func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}

// ===== LEADERBOARD =====

// HandleLeaderboard returns one ranked page.
//
// HTTP: GET /api/leaderboard?sortBy=streak|articlesRead|displayName&page=1&perPage=5
func (h *APIHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	perPage, err := intParam(r, "perPage")
	if err != nil {
		writeError(w, err)
		return
	}

	sortBy := model.LeaderboardSort(r.URL.Query().Get("sortBy"))
	res, err := h.board.Page(r.Context(), sortBy, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ===== NEWS =====

// HandleNews passes a query through to the news API.
//
// HTTP: GET /api/news?country=&language=&category=&q=&page=
func (h *APIHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	if h.news == nil {
		writeError(w, apperror.Unavailable("news API"))
		return
	}
	q := r.URL.Query()
	page, err := h.news.Latest(r.Context(), model.NewsQuery{
		Country:  q.Get("country"),
		Language: q.Get("language"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     q.Get("page"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ===== READING =====

type readRequest struct {
	Content string `json:"content"`
}

// HandleRecordRead counts an article as read by the signed-in reader.
// Every call counts: reads are not deduplicated per article.
//
// HTTP: POST /api/reading
// REQUEST BODY: {"content": "full article text"}
func (h *APIHandler) HandleRecordRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	var req readRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	delta, err := h.reading.RecordRead(r.Context(), uid, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// ===== PREFERENCES =====

type themeBody struct {
	Theme model.Theme `json:"theme"`
}

// HTTP: GET /api/preferences/theme
func (h *APIHandler) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	t, err := h.prefs.GetTheme(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

// HTTP: PUT /api/preferences/theme  {"theme":"dark"}
func (h *APIHandler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	var body themeBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.prefs.SetTheme(r.Context(), uid, body.Theme); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// HTTP: POST /api/preferences/theme/toggle
func (h *APIHandler) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	t, err := h.prefs.ToggleTheme(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

// HTTP: GET /api/preferences/settings
func (h *APIHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	s, err := h.prefs.GetSettings(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleSaveSettings stores the settings object. Missing fields take the
// default value, like an import.
//
// HTTP: PUT /api/preferences/settings
func (h *APIHandler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	s := model.DefaultSettings()
	if err := decodeJSON(w, r, &s); err != nil {
		writeError(w, err)
		return
	}
	if err := h.prefs.SaveSettings(r.Context(), uid, s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HTTP: DELETE /api/preferences/settings
func (h *APIHandler) HandleResetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	s, err := h.prefs.ResetSettings(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleExportSettings archives the settings and returns the file as a
// download.
//
// HTTP: GET /api/preferences/settings/export
func (h *APIHandler) HandleExportSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	res, err := h.prefs.ExportSettings(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFileName+`"`)
	w.Header().Set("X-Export-Location", res.Location)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		h.logger.Error("failed to write settings export", slog.String("error", err.Error()))
	}
}

// HandleImportSettings replaces the settings with an uploaded file.
//
// HTTP: POST /api/preferences/settings/import  (raw JSON body)
func (h *APIHandler) HandleImportSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperror.ValidationFailed("body", "settings file is too large"))
		return
	}
	s, err := h.prefs.ImportSettings(r.Context(), uid, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
