package model

import "time"

// DefaultDisplayName is stored for identities that come without a name.
const DefaultDisplayName = "Anonymous"

// Stats are the reading counters kept on a profile.
// The session reconciler never touches them; the reading service does.
type Stats struct {
	ArticlesRead int `json:"articlesRead" bson:"articlesRead"`
	TimeSpent    int `json:"timeSpent"    bson:"timeSpent"` // minutes
	CommentsMade int `json:"commentsMade" bson:"commentsMade"`
}

// Profile is the stored record for one identity, keyed by Identity.UID.
//
// WHY *time.Time FOR LastLogin?
// Older records may not carry the field at all, or carry something we can't
// parse. Both decode to nil, and the reconciler treats nil as "first login
// since streak tracking existed". A zero time.Time would be ambiguous.
type Profile struct {
	UID         string     `json:"uid"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	PhotoURL    string     `json:"photoURL"`
	JoinedAt    *time.Time `json:"joinedAt,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	Streak      int        `json:"streak"`
	TotalLogins int        `json:"totalLogins"`
	Stats       Stats      `json:"stats"`
}

// NewProfile is a full record about to be inserted.
// JoinedAt and LastLogin are Timestamps so the caller can ask for server time.
type NewProfile struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
	JoinedAt    Timestamp
	LastLogin   Timestamp
	Streak      int
	TotalLogins int
	Stats       Stats
}

// ProfileUpdate is a partial update. Nil / zero fields are left untouched.
type ProfileUpdate struct {
	LastLogin   Timestamp
	Streak      *int
	TotalLogins *int
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.LastLogin.IsZero() && u.Streak == nil && u.TotalLogins == nil
}
