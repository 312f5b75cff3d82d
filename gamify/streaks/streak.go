// Package streaks implements the activity-streak math used by daily
// conditions and the WEEKLY_ACTIVE ranking. All calendar arithmetic
// happens in a single reference timezone so a "day" means the same
// thing for every reader.
//
// The lazily computed value is the only authority on whether a streak
// is alive: a stored counter is trusted only while last activity falls
// on the current calendar day, and reads never wait for any batch
// reset to run.
package streaks

import (
	"time"
)

// Clock abstracts time.Now for tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DayOf truncates t to its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar-day boundaries between a
// and b in loc (0 for the same day, 1 for adjacent days).
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := DayOf(a, loc)
	db := DayOf(b, loc)
	return int(db.Sub(da).Hours() / 24)
}

// Effective applies use-it-or-lose-it semantics to a stored streak:
// the stored value holds only while the last activity is today; one
// full calendar day ago or more means the streak is already 0, even
// though no job has reset the stored counter yet.
func Effective(stored int, lastActivity time.Time, now time.Time, loc *time.Location) int {
	if stored <= 0 || lastActivity.IsZero() {
		return 0
	}
	if DaysBetween(lastActivity, now, loc) >= 1 {
		return 0
	}
	return stored
}

// Advance computes the streak after an activity at "at": a repeat on
// the same day keeps it, the next consecutive day extends it, a gap
// restarts at 1. An activity older than the last one recorded is a
// late delivery, not a gap, so it keeps the streak too.
func Advance(stored int, lastActivity time.Time, at time.Time, loc *time.Location) int {
	if lastActivity.IsZero() {
		return 1
	}
	switch days := DaysBetween(lastActivity, at, loc); {
	case days <= 0:
		if stored < 1 {
			return 1
		}
		return stored
	case days == 1:
		if stored < 1 {
			return 1
		}
		return stored + 1
	default:
		return 1
	}
}
