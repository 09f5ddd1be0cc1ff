// Package week maps calendar dates to Monday-anchored week keys and back.
//
// A week key counts Monday-to-Sunday spans from the Unix epoch. 1970-01-01 was a
// Thursday, so epoch day 0 belongs to week 0 whose Monday is 1969-12-29.
//
// Keys are derived from the calendar date (year, month, day) of a time in its own
// location, never from the instant, so DST shifts and time-of-day do not move a date
// into a neighbouring week.
package week

import "time"

// Key identifies one Monday-to-Sunday span.
type Key int64

const daysPerWeek = 7

// epochMondayOffset shifts epoch day 0 (a Thursday) onto its week's Monday.
const epochMondayOffset = 3

// KeyOf returns the week key of the calendar date of t.
func KeyOf(t time.Time) Key {
	return Key(floorDiv(epochDay(t)+epochMondayOffset, daysPerWeek))
}

// StartOf returns the Monday of week k at midnight in loc.
func StartOf(k Key, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	days := int64(k)*daysPerWeek - epochMondayOffset
	y, m, d := time.Unix(days*86400, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Dates returns the seven days of week k, Monday first.
func Dates(k Key, loc *time.Location) []time.Time {
	start := StartOf(k, loc)
	out := make([]time.Time, daysPerWeek)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// Contains reports whether the calendar date of t falls in week k.
func (k Key) Contains(t time.Time) bool {
	return KeyOf(t) == k
}

// Day truncates t to midnight of its calendar date, keeping its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayIn returns midnight of the calendar date of t as seen from loc.
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc))
}

// MondayOf returns midnight of the Monday on or before the calendar date of t.
func MondayOf(t time.Time) time.Time {
	return StartOf(KeyOf(t), t.Location())
}

// SameDay compares calendar dates, ignoring time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(epochDay(b) - epochDay(a))
}

// Format renders the calendar date of t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format("2006-01-02")
}

func epochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return floorDiv(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix(), 86400)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
