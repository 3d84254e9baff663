// Package duedate turns source timestamps into timezone-stable calendar dates.
//
// A Date carries no time of day. It is stored as 12:00 UTC so that rendering it
// in any display zone between UTC-11 and UTC+11 yields the same calendar day.
package duedate

import (
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date anchored at midday UTC.
type Date struct {
	t time.Time
}

// New returns the date for the given calendar day.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// Normalize converts a raw source timestamp into the calendar date observed in
// loc. Nil, blank and unparseable input yield nil.
//
// The date is taken strictly as seen in the institution zone, with no early
// morning hour shift: a deadline stamped 23:59 local stays on that day, and one
// stamped 00:30 local belongs to the new day.
func Normalize(raw *string, loc *time.Location) *Date {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	// Date-only values are already calendar dates.
	if d, err := time.Parse(dateLayout, s); err == nil {
		date := New(d.Year(), d.Month(), d.Day())
		return &date
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			local := ts.In(loc)
			date := New(local.Year(), local.Month(), local.Day())
			return &date
		}
	}
	return nil
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return New(local.Year(), local.Month(), local.Day())
}

// FromTime reads back a stored date. Nil stays nil.
func FromTime(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := New(u.Year(), u.Month(), u.Day())
	return &d
}

// Time returns the midday UTC instant used for storage.
func (d Date) Time() time.Time {
	return d.t
}

// TimePtr is Time for nullable columns.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.t
	return &t
}

// DaysUntil returns the whole number of days from d to other; negative when other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(math.Round(other.t.Sub(d.t).Hours() / 24))
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.t.Format(dateLayout)
}
