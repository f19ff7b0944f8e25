// Package streak computes login streaks from timestamps.
//
// CALENDAR DAYS, NOT 24-HOUR PERIODS:
// A visit at 23:55 followed by one at 00:05 is a new day, even though only
// ten minutes passed. So we never subtract instants. Instead both instants are
// projected onto the reader's calendar (a *time.Location) and we count the
// whole days between the two dates.
//
// Counting is done on civil dates re-anchored at UTC midnight, which keeps
// DST transitions (23h or 25h days) from producing off-by-one results.
package streak

import "time"

// Outcome names the branch of the decision table that was taken.
type Outcome string

const (
	OutcomeNew         Outcome = "new"
	OutcomeConsecutive Outcome = "consecutive"
	OutcomeReset       Outcome = "reset"
	OutcomeSameDay     Outcome = "same_day"
	OutcomeNoLastLogin Outcome = "missing_last_login"
	OutcomeClockSkew   Outcome = "clock_skew"
)

// Decision is the result of Next: the counters to persist.
type Decision struct {
	Outcome     Outcome
	Streak      int
	TotalLogins int
}

// DayDiff returns the number of calendar days from a to b in loc.
// It is positive when b is on a later day than a, 0 for the same day.
func DayDiff(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()

	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// Next applies the decision table to an existing record.
//
//	diffDays == 1        → streak + 1
//	diffDays  > 1        → streak = 1
//	diffDays == 0        → streak unchanged
//	lastLogin == nil     → streak = 1
//	diffDays  < 0        → streak unchanged (stored time is ahead of us)
//
// totalLogins always goes up by exactly one.
func Next(streak, totalLogins int, lastLogin *time.Time, now time.Time, loc *time.Location) Decision {
	d := Decision{TotalLogins: totalLogins + 1}

	if lastLogin == nil {
		d.Outcome = OutcomeNoLastLogin
		d.Streak = 1
		return d
	}

	switch diff := DayDiff(*lastLogin, now, loc); {
	case diff == 1:
		d.Outcome = OutcomeConsecutive
		d.Streak = streak + 1
	case diff > 1:
		d.Outcome = OutcomeReset
		d.Streak = 1
	case diff == 0:
		d.Outcome = OutcomeSameDay
		d.Streak = streak
	default:
		d.Outcome = OutcomeClockSkew
		d.Streak = streak
	}
	// Legacy records may carry streak 0; a record that exists has visited at
	// least once.
	if d.Streak < 1 {
		d.Streak = 1
	}
	return d
}

// First is the decision for an identity seen for the first time.
func First() Decision {
	return Decision{Outcome: OutcomeNew, Streak: 1, TotalLogins: 1}
}
