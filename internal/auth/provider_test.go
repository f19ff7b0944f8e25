package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newOAuthServer serves a token endpoint and a GitHub-style /user endpoint.
func newOAuthServer(t *testing.T, tokenBody map[string]any, userStatus int, user any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenBody)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userStatus)
		_ = json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// =========================================================================
// PROVIDERS TESTS
// =========================================================================

func TestProviders(t *testing.T) {
	gh := NewGitHubProvider("id", "secret", "http://localhost/auth/github/callback")
	g := newOIDCProvider("google", &oauth2.Config{}, nil)

	ps := NewProviders(gh, nil, g)

	assert.Equal(t, []string{"github", "google"}, ps.Names())
	p, ok := ps.Get("github")
	assert.True(t, ok)
	assert.Equal(t, "github", p.Name())
	_, ok = ps.Get("facebook")
	assert.False(t, ok)
}

// =========================================================================
// GITHUB TESTS
// =========================================================================

func TestGitHubProvider_AuthURLCarriesState(t *testing.T) {
	gh := NewGitHubProvider("client-1", "secret", "http://localhost/auth/github/callback")

	u, err := url.Parse(gh.AuthURL("state-xyz"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.Equal(t, "client-1", u.Query().Get("client_id"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	srv := newOAuthServer(t,
		map[string]any{"access_token": "at-123", "token_type": "Bearer"},
		http.StatusOK,
		GitHubUser{ID: 42, Login: "octo", Email: "octo@example.com", AvatarURL: "https://example.com/o.png"},
	)
	gh := NewGitHubProvider("id", "secret", "http://localhost/cb")
	gh.config.Endpoint = testEndpoint(srv)
	gh.userURL = srv.URL + "/user"

	id, err := gh.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "github:42", id.UID)
	assert.Equal(t, "octo", id.DisplayName, "login is used when name is empty")
	assert.Equal(t, "octo@example.com", id.Email)
	assert.Equal(t, "https://example.com/o.png", id.PhotoURL)
}

func TestGitHubProvider_ExchangeErrors(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		srv := newOAuthServer(t, nil, http.StatusOK, nil)
		gh := NewGitHubProvider("id", "secret", "http://localhost/cb")
		gh.config.Endpoint = testEndpoint(srv)
		gh.userURL = srv.URL + "/user"

		_, err := gh.Exchange(context.Background(), "bad-code")
		assert.Error(t, err)
	})

	t.Run("user API failure", func(t *testing.T) {
		srv := newOAuthServer(t,
			map[string]any{"access_token": "at-123", "token_type": "Bearer"},
			http.StatusInternalServerError, map[string]string{},
		)
		gh := NewGitHubProvider("id", "secret", "http://localhost/cb")
		gh.config.Endpoint = testEndpoint(srv)
		gh.userURL = srv.URL + "/user"

		_, err := gh.Exchange(context.Background(), "good-code")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("zero id", func(t *testing.T) {
		srv := newOAuthServer(t,
			map[string]any{"access_token": "at-123", "token_type": "Bearer"},
			http.StatusOK, GitHubUser{Login: "ghost"},
		)
		gh := NewGitHubProvider("id", "secret", "http://localhost/cb")
		gh.config.Endpoint = testEndpoint(srv)
		gh.userURL = srv.URL + "/user"

		_, err := gh.Exchange(context.Background(), "good-code")
		assert.Error(t, err)
	})
}

// =========================================================================
// OIDC TESTS
// =========================================================================

type fakeIDToken struct{ claims map[string]any }

func (f fakeIDToken) Claims(v any) error {
	b, err := json.Marshal(f.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type fakeVerifier struct {
	wantRaw string
	token   IDToken
	err     error
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (IDToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	if raw != f.wantRaw {
		return nil, errors.New("unexpected raw token")
	}
	return f.token, nil
}

func newTestOIDCProvider(srv *httptest.Server, v idTokenVerifier) *OIDCProvider {
	return newOIDCProvider("google", &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint:     testEndpoint(srv),
	}, v)
}

func TestOIDCProvider_Exchange(t *testing.T) {
	srv := newOAuthServer(t, map[string]any{
		"access_token": "at-123",
		"token_type":   "Bearer",
		"id_token":     "raw-id-token",
	}, http.StatusOK, nil)

	v := &fakeVerifier{
		wantRaw: "raw-id-token",
		token: fakeIDToken{claims: map[string]any{
			"sub":            "1100",
			"name":           "Ada Reader",
			"email":          "ada@example.com",
			"email_verified": true,
			"picture":        "https://example.com/ada.png",
		}},
	}
	p := newTestOIDCProvider(srv, v)

	id, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "google:1100", id.UID)
	assert.Equal(t, "Ada Reader", id.DisplayName)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "https://example.com/ada.png", id.PhotoURL)
}

func TestOIDCProvider_ExchangeErrors(t *testing.T) {
	t.Run("no id_token in response", func(t *testing.T) {
		srv := newOAuthServer(t, map[string]any{"access_token": "at-123", "token_type": "Bearer"}, http.StatusOK, nil)
		p := newTestOIDCProvider(srv, &fakeVerifier{})

		_, err := p.Exchange(context.Background(), "good-code")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "id_token")
	})

	t.Run("verification fails", func(t *testing.T) {
		srv := newOAuthServer(t, map[string]any{
			"access_token": "at-123", "token_type": "Bearer", "id_token": "forged",
		}, http.StatusOK, nil)
		p := newTestOIDCProvider(srv, &fakeVerifier{err: errors.New("oidc: id token signed by unknown key")})

		_, err := p.Exchange(context.Background(), "good-code")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verifying google ID token")
	})

	t.Run("missing subject", func(t *testing.T) {
		srv := newOAuthServer(t, map[string]any{
			"access_token": "at-123", "token_type": "Bearer", "id_token": "raw",
		}, http.StatusOK, nil)
		p := newTestOIDCProvider(srv, &fakeVerifier{
			wantRaw: "raw",
			token:   fakeIDToken{claims: map[string]any{"name": "nobody"}},
		})

		_, err := p.Exchange(context.Background(), "good-code")
		assert.Error(t, err)
	})
}
