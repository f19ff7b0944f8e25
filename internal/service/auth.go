package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"
	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/auth"
	"github.com/sakif/editorialchain/internal/identity"
)

// AuthService runs sign-in and sign-out. It does not touch the profile
// store: it only publishes identity events, and the application state
// reconciles them in the background.
//
//	AuthHandler (HTTP) → AuthService → Provider (OAuth code exchange)
//	                                 ↘ TokenService (session JWT)
//	                                 ↘ identity.Hub  → app.State → Reconciler
type AuthService struct {
	providers auth.Providers
	tokens    *auth.TokenService
	hub       *identity.Hub
	tracker   SessionTracker
	logger    *slog.Logger
}

// SessionTracker is told about a session right before its identity is
// published, so a status request racing the reconciliation sees "loading".
// *app.State satisfies it.
type SessionTracker interface {
	MarkLoading(sessionID string)
	// BeginRestore reports whether the caller owns the restore of sessionID.
	BeginRestore(sessionID string) bool
	EndSession(sessionID string)
	Revoked(sessionID string) bool
}

// NewAuthService wires the sign-in flow. tracker may be nil.
func NewAuthService(providers auth.Providers, tokens *auth.TokenService, hub *identity.Hub, tracker SessionTracker, logger *slog.Logger) *AuthService {
	return &AuthService{
		providers: providers,
		tokens:    tokens,
		hub:       hub,
		tracker:   tracker,
		logger:    logger,
	}
}

func (s *AuthService) publish(ctx context.Context, sess auth.Session) error {
	if s.tracker != nil {
		s.tracker.MarkLoading(sess.ID)
	}
	return s.hub.SignIn(ctx, sess.ID, sess.Identity)
}

// AuthResult bundles the new session and its signed token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	Session auth.Session
	Token   string
}

// Providers lists the configured sign-in methods.
func (s *AuthService) Providers() []string {
	return s.providers.Names()
}

// LoginURL returns the provider's authorization URL for the given state.
func (s *AuthService) LoginURL(provider, state string) (string, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", apperror.NotFound("sign-in provider", provider)
	}
	return p.AuthURL(state), nil
}

// CompleteSignIn exchanges the callback code for an identity, opens a new
// session for it and publishes the sign-in.
//
// Exchange failures come back as *identity.SignInError with CodeFailed.
func (s *AuthService) CompleteSignIn(ctx context.Context, provider, code string) (*AuthResult, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return nil, apperror.NotFound("sign-in provider", provider)
	}
	if code == "" {
		return nil, identity.NewSignInError(identity.CodeFailed, errors.New("missing authorization code"))
	}

	id, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("sign-in exchange failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		return nil, identity.NewSignInError(identity.CodeFailed, err)
	}

	sess := auth.Session{ID: xid.New().String(), Identity: *id}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", id.UID, err)
	}

	if err := s.publish(ctx, sess); err != nil {
		return nil, fmt.Errorf("service/auth: publishing sign-in: %w", err)
	}

	s.logger.Info("reader signed in",
		slog.String("provider", provider),
		slog.String("uid", id.UID),
		slog.String("session", sess.ID),
	)
	return &AuthResult{Session: sess, Token: token}, nil
}

// Restore republishes the identity of an existing session, for a server
// that has no view for it (after a restart). Like a fresh sign-in, it
// counts as one login.
//
// Concurrent restores of one session publish once; the others return nil
// and the caller reports "loading". A signed-out session is refused.
func (s *AuthService) Restore(ctx context.Context, sess *auth.Session) error {
	if sess == nil || sess.ID == "" {
		return apperror.Unauthorized("sign in required")
	}
	if s.tracker != nil && !s.tracker.BeginRestore(sess.ID) {
		if s.tracker.Revoked(sess.ID) {
			return apperror.Unauthorized("session has ended")
		}
		return nil
	}
	if err := s.hub.SignIn(ctx, sess.ID, sess.Identity); err != nil {
		return fmt.Errorf("service/auth: restoring session %s: %w", sess.ID, err)
	}
	s.logger.Info("session restored", slog.String("uid", sess.Identity.UID), slog.String("session", sess.ID))
	return nil
}

// SignOut publishes the end of a session.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if s.tracker != nil {
		s.tracker.EndSession(sessionID)
	}
	if err := s.hub.SignOut(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: publishing sign-out: %w", err)
	}
	s.logger.Info("reader signed out", slog.String("session", sessionID))
	return nil
}

// ValidateToken returns the session encoded in a token.
func (s *AuthService) ValidateToken(tokenStr string) (*auth.Session, error) {
	sess, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	return sess, nil
}
