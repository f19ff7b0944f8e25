// Package auth handles sign-in sessions: the session JWT, the middleware that
// reads it, and the OAuth providers that produce identities.
//
// SESSION FLOW:
// 1. Reader visits /auth/{provider}/login → redirected to Google or GitHub
// 2. The provider calls back /auth/{provider}/callback with a code
// 3. Server exchanges the code for an identity
// 4. Server issues a session JWT (HttpOnly cookie) and publishes the identity
//    on the identity hub, where the session reconciler picks it up
// 5. Later requests carry the cookie; the middleware puts the Session in the
//    request context
//
// WHAT IS IN THE TOKEN?
// The session id ("sid") plus the identity the provider returned. Carrying
// the identity means a session can be restored after a server restart
// without asking the provider again: /api/me republishes it.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"google:123","sid":"cv37rs3pp9olc6atsptg","name":"Ann",...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sakif/editorialchain/internal/model"
)

const issuer = "editorialchain"

// DefaultSessionTTL is used when NewTokenService gets a non-positive ttl.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is what a valid token proves: which browser session, which identity.
type Session struct {
	ID       string
	Identity model.Identity
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked Revocations
}

// Revocations lists sessions that were signed out while their tokens are
// still within their lifetime. *app.State satisfies it.
type Revocations interface {
	Revoked(sessionID string) bool
}

// ErrSessionEnded is returned by Validate for a signed-out session.
var ErrSessionEnded = errors.New("auth: session has ended")

// SetRevocations makes Validate refuse tokens of signed-out sessions.
// Call it before the service is shared between goroutines.
func (s *TokenService) SetRevocations(r Revocations) {
	s.revoked = r
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of issued tokens. Handlers use it for the cookie MaxAge.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" holds the identity UID.
type claims struct {
	jwt.RegisteredClaims
	SessionID     string `json:"sid"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// Issue signs a token for the session with the service's TTL.
func (s *TokenService) Issue(sess Session) (string, error) {
	return s.IssueWithDuration(sess, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime.
// Used in tests to produce already-expired tokens.
func (s *TokenService) IssueWithDuration(sess Session, d time.Duration) (string, error) {
	if sess.ID == "" || sess.Identity.UID == "" {
		return "", errors.New("auth: session needs an id and an identity")
	}
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Identity.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		SessionID:     sess.ID,
		Name:          sess.Identity.DisplayName,
		Email:         sess.Identity.Email,
		Picture:       sess.Identity.PhotoURL,
		EmailVerified: sess.Identity.EmailVerified,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the session it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token is not expired, and has an expiry at all
//   - Issuer matches "editorialchain"
//   - Algorithm is HS256 (prevents "alg":"none" confusion attacks)
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" || c.SessionID == "" {
		return nil, fmt.Errorf("auth: token has no subject or session")
	}
	if s.revoked != nil && s.revoked.Revoked(c.SessionID) {
		return nil, ErrSessionEnded
	}

	return &Session{
		ID: c.SessionID,
		Identity: model.Identity{
			UID:           c.Subject,
			DisplayName:   c.Name,
			Email:         c.Email,
			PhotoURL:      c.Picture,
			EmailVerified: c.EmailVerified,
		},
	}, nil
}
