// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// Identity is the authenticated principal handed to us by the sign-in provider
// (Google or GitHub) for the current session.
//
// WHY A SEPARATE TYPE FROM Profile?
// The identity belongs to the provider: we never write it, and it lives only
// as long as the session does. The Profile is ours: it is stored, and it
// survives sign-out. Keeping them apart makes the merge rule in CurrentUser
// explicit instead of "whatever the last spread wins".
type Identity struct {
	UID           string `json:"uid"`           // provider-scoped, opaque, e.g. "google:1234"
	DisplayName   string `json:"displayName"`   // may be empty
	Email         string `json:"email"`         // may be empty (hidden by the user)
	PhotoURL      string `json:"photoURL"`      // may be empty
	EmailVerified bool   `json:"emailVerified"` // as reported by the provider
}
