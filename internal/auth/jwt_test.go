package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/editorialchain/internal/model"
)

// newTestTokenService creates a TokenService with a fixed secret.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func testSession(sid, uid string) Session {
	return Session{
		ID: sid,
		Identity: model.Identity{
			UID:           uid,
			DisplayName:   "Ada Reader",
			Email:         "ada@example.com",
			PhotoURL:      "https://example.com/ada.png",
			EmailVerified: true,
		},
	}
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
	if ts.TTL() != DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultSessionTTL)
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssue_ReturnsJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(testSession("sid-1", "google:1"))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Issue() token doesn't look like a JWT: %q", token)
	}
}

func TestIssue_RequiresSessionAndIdentity(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.Issue(Session{Identity: model.Identity{UID: "u"}}); err == nil {
		t.Error("Issue() should reject a session without an id")
	}
	if _, err := ts.Issue(Session{ID: "sid"}); err == nil {
		t.Error("Issue() should reject a session without an identity")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	want := testSession("sid-abc", "github:42")

	token, err := ts.Issue(want)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if *got != want {
		t.Errorf("Validate() = %+v, want %+v", *got, want)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueWithDuration(testSession("sid", "u"), -1*time.Second)
	if err != nil {
		t.Fatalf("IssueWithDuration() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should return an error for an expired token")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Issue(testSession("sid", "u"))
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Validate(tampered); err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", time.Hour)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)

	token, _ := ts1.Issue(testSession("sid", "u"))

	if _, err := ts2.Validate(token); err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_EmptyAndGarbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token"} {
		if _, err := ts.Validate(in); err == nil {
			t.Errorf("Validate(%q) should return an error", in)
		}
	}
}

type revokedSet map[string]bool

func (r revokedSet) Revoked(sessionID string) bool { return r[sessionID] }

func TestValidate_RevokedSession(t *testing.T) {
	ts := newTestTokenService(t)
	ts.SetRevocations(revokedSet{"sid-gone": true})

	gone, _ := ts.Issue(testSession("sid-gone", "u"))
	live, _ := ts.Issue(testSession("sid-live", "u"))

	if _, err := ts.Validate(gone); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Validate() error = %v, want ErrSessionEnded", err)
	}
	if _, err := ts.Validate(live); err != nil {
		t.Errorf("Validate() error = %v for a live session", err)
	}
}
