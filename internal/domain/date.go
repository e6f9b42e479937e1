package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// dateLayout is the ISO-8601 calendar date format used on the wire.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone.
// Streak and daily-rollover decisions compare Dates, never durations, so a
// user active at 23:59 and again at 00:01 is seen on two different days.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t as observed in loc.
// A nil loc means time.Local.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateFromEpochDay converts days since 1970-01-01 into a Date.
func DateFromEpochDay(n int64) Date {
	return DateOf(time.Unix(n*86400, 0), time.UTC)
}

// ParseDate parses "YYYY-MM-DD". A full RFC 3339 timestamp is accepted too;
// its date part is kept as written.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return Date{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		t = ts
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// midnight returns the start of the date in UTC. UTC has no DST so day
// arithmetic on it is exact.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// EpochDay returns the number of days since 1970-01-01.
func (d Date) EpochDay() int64 {
	return d.midnight().Unix() / 86400
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n), time.UTC)
}

// DaysUntil returns the signed number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.EpochDay() - d.EpochDay())
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool { return d == other }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.EpochDay() < other.EpochDay() }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.EpochDay() > other.EpochDay() }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return d.midnight().Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD", an RFC 3339 timestamp, an epoch-day
// integer, or null (left unchanged).
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] != '"' {
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: date %s", ErrCorruptSnapshot, b)
		}
		*d = DateFromEpochDay(n)
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: date %s", ErrCorruptSnapshot, b)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	*d = parsed
	return nil
}
