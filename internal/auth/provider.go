package auth

import (
	"context"
	"sort"

	"github.com/sakif/editorialchain/internal/model"
)

// Provider is one OAuth 2.0 sign-in method (Google, GitHub).
//
// The flow is the same for every provider: redirect to AuthURL with a
// random state, receive a code on the callback, Exchange it server-side for
// an Identity. Only the "who is this?" step differs: GitHub has a REST
// endpoint, Google returns a signed OpenID Connect ID token.
type Provider interface {
	// Name is the path segment used in /auth/{provider}/login.
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*model.Identity, error)
}

// Providers is the set of configured providers, keyed by Name.
type Providers map[string]Provider

// NewProviders indexes the given providers by name. Nil entries are skipped,
// which lets callers pass providers that were not configured.
func NewProviders(ps ...Provider) Providers {
	out := make(Providers, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		out[p.Name()] = p
	}
	return out
}

// Get returns the provider with the given name.
func (ps Providers) Get(name string) (Provider, bool) {
	p, ok := ps[name]
	return p, ok
}

// Names returns the configured provider names, sorted.
func (ps Providers) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
