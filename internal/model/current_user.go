package model

import "time"

// CurrentUser is the merged view the rest of the application displays:
// the live Identity combined with the stored Profile.
//
// MERGE RULE (see Merge):
//   - UID always comes from the Identity.
//   - DisplayName, Email and PhotoURL come from the Profile when one is
//     present, otherwise from the Identity.
//   - Profile-only fields are pointers so that an identity-only view (the
//     store was unreachable) has no "streak" key at all in JSON, rather
//     than a misleading 0.
type CurrentUser struct {
	UID           string     `json:"uid"`
	DisplayName   string     `json:"displayName"`
	Email         string     `json:"email"`
	PhotoURL      string     `json:"photoURL"`
	EmailVerified bool       `json:"emailVerified"`
	JoinedAt      *time.Time `json:"joinedAt,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	Streak        *int       `json:"streak,omitempty"`
	TotalLogins   *int       `json:"totalLogins,omitempty"`
	Stats         *Stats     `json:"stats,omitempty"`
}

// HasProfile reports whether profile fields made it into the view.
func (u *CurrentUser) HasProfile() bool {
	return u.Streak != nil
}

// Merge builds the merged view. A nil profile yields the identity-only view.
func Merge(id Identity, p *Profile) *CurrentUser {
	u := &CurrentUser{
		UID:           id.UID,
		DisplayName:   id.DisplayName,
		Email:         id.Email,
		PhotoURL:      id.PhotoURL,
		EmailVerified: id.EmailVerified,
	}
	if p == nil {
		return u
	}

	u.DisplayName = p.DisplayName
	u.Email = p.Email
	u.PhotoURL = p.PhotoURL

	streak, logins, stats := p.Streak, p.TotalLogins, p.Stats
	u.Streak = &streak
	u.TotalLogins = &logins
	u.Stats = &stats
	if p.JoinedAt != nil {
		t := *p.JoinedAt
		u.JoinedAt = &t
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
	return u
}
