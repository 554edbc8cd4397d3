package domain

import "time"

// Advance returns the streak after activity at now. Day boundaries are
// evaluated in loc.
//
//   - same calendar day as LastActiveOn: counters unchanged
//   - the previous calendar day: CurrentDays+1
//   - anything else, including no prior activity: CurrentDays reset to 1
//
// LastActiveOn is always moved to now.
func (s Streak) Advance(now time.Time, loc *time.Location) Streak {
	if loc == nil {
		loc = time.UTC
	}
	next := s
	switch {
	case s.LastActiveOn == nil:
		next.CurrentDays = 1
	default:
		switch daysBetween(*s.LastActiveOn, now, loc) {
		case 0:
		case 1:
			next.CurrentDays = s.CurrentDays + 1
		default:
			next.CurrentDays = 1
		}
	}
	if next.CurrentDays < 1 {
		next.CurrentDays = 1
	}
	if next.LongestDays < next.CurrentDays {
		next.LongestDays = next.CurrentDays
	}
	at := now
	next.LastActiveOn = &at
	return next
}

// daysBetween counts calendar days from a to b in loc. Negative when b is
// on an earlier day than a.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	// Noon UTC keeps the subtraction clear of DST shifts.
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
