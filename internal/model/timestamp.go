package model

import "time"

// Timestamp is a value written to a time field of the Profile Store.
//
// It is either a concrete instant, or the "server timestamp" sentinel, which
// asks the store to fill in its own notion of now at write time. The
// reconciler uses the sentinel for joinedAt/lastLogin so that a skewed client
// clock never ends up in the record.
//
// The zero value is "no value": stores skip the field.
type Timestamp struct {
	at     time.Time
	server bool
}

// ServerTimestamp returns the sentinel resolved by the store.
func ServerTimestamp() Timestamp {
	return Timestamp{server: true}
}

// At returns a Timestamp holding a concrete instant.
func At(t time.Time) Timestamp {
	return Timestamp{at: t}
}

// IsServer reports whether the store must resolve this value itself.
func (ts Timestamp) IsServer() bool { return ts.server }

// IsZero reports whether no value was set.
func (ts Timestamp) IsZero() bool { return !ts.server && ts.at.IsZero() }

// Resolve returns the concrete instant, using now for the sentinel.
func (ts Timestamp) Resolve(now time.Time) time.Time {
	if ts.server {
		return now
	}
	return ts.at
}
