package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/sakif/editorialchain/internal/auth"
	"github.com/sakif/editorialchain/internal/identity"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/service"
)

const stateCookie = "oauth_state"

// SignInFlow is the part of *service.AuthService the handlers use.
type SignInFlow interface {
	Providers() []string
	LoginURL(provider, state string) (string, error)
	CompleteSignIn(ctx context.Context, provider, code string) (*service.AuthResult, error)
	Restore(ctx context.Context, sess *auth.Session) error
	SignOut(ctx context.Context, sessionID string) error
}

// SessionViews is the read side of *app.State.
type SessionViews interface {
	View(sessionID string) (view *model.CurrentUser, loading, known bool)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool // set in production (HTTPS only)
}

// AuthHandler manages the OAuth sign-in flow and the current-user endpoint.
//
//   - HandleLogin    → redirect the browser to the provider
//   - HandleCallback → exchange the code, publish the identity, set the cookie
//   - HandleLogout   → publish the sign-out, clear the cookie
//   - HandleMe       → the merged view of this session
type AuthHandler struct {
	flow        SignInFlow
	views       SessionViews
	cookie      CookieConfig
	redirectURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. After a successful sign-in the
// browser is sent to redirectURL ("/" when empty).
func NewAuthHandler(flow SignInFlow, views SessionViews, cookie CookieConfig, redirectURL string, logger *slog.Logger) *AuthHandler {
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &AuthHandler{
		flow:        flow,
		views:       views,
		cookie:      cookie,
		redirectURL: redirectURL,
		logger:      logger,
	}
}

// HandleProviders lists the configured sign-in methods.
//
// HTTP: GET /auth/providers
func (h *AuthHandler) HandleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": h.flow.Providers()})
}

// HandleLogin redirects the reader to the provider's authorization page.
//
// HTTP: GET /auth/{provider}/login
//
// CSRF PROTECTION VIA STATE:
// A random state is stored in a short-lived HttpOnly cookie and sent to the
// provider; the callback checks that both match.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	target, err := h.flow.LoginURL(chi.URLParam(r, "provider"), state)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleCallback completes the sign-in.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// Failures answer 401 with a sign-in error code:
//   - state cookie missing (the browser dropped it, as a blocked popup would) → popup-blocked
//   - ?error=access_denied → popup-closed-by-user
//   - ?error=redirect_uri_mismatch / unauthorized_client → unauthorized-domain
//   - anything else → failed
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie", slog.String("provider", provider))
		writeError(w, identity.NewSignInError(identity.CodePopupBlocked, nil))
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1})

	if errParam := q.Get("error"); errParam != "" {
		sie := identity.FromCallback(errParam, q.Get("error_description"))
		h.logger.Info("auth callback: provider returned an error",
			slog.String("provider", provider),
			slog.String("code", sie.Code),
		)
		writeError(w, sie)
		return
	}

	if q.Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch", slog.String("provider", provider))
		writeError(w, identity.NewSignInError(identity.CodeFailed, errors.New("invalid OAuth state")))
		return
	}

	res, err := h.flow.CompleteSignIn(r.Context(), provider, q.Get("code"))
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token, h.cookie.TTL)
	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// HandleLogout ends the session.
//
// HTTP: POST /auth/logout
//
// POST, not GET: logout changes state and must not be triggered by a
// prefetch or a cross-site link.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		if err := h.flow.SignOut(r.Context(), sess.ID); err != nil {
			h.logger.Error("logout: publishing sign-out failed", slog.String("error", err.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the merged view of the signed-in reader.
//
// HTTP: GET /api/me
// Auth: RequireSession
//
// 202 {"loading":true} while the sign-in is being reconciled. A valid
// cookie for a session this process has never seen (after a restart) is
// restored by republishing its identity, which also answers 202. A
// signed-out session answers 401.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "sign in required"})
		return
	}

	view, loading, known := h.views.View(sess.ID)
	switch {
	case !known:
		if err := h.flow.Restore(r.Context(), sess); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]bool{"loading": true})
	case loading || view == nil:
		writeJSON(w, http.StatusAccepted, map[string]bool{"loading": true})
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
