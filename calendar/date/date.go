// Package date provides the naive calendar-date value type used throughout
// the aggregation engine. All engine inputs and outputs are plain calendar
// dates with no time zone attached; wall-clock times only appear when a date
// is combined with a Clock to build a concrete event time.
package date

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format for dates, ISO 8601 calendar dates.
const Layout = "2006-01-02"

var (
	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidClock is returned when a time-of-day string cannot be parsed.
	ErrInvalidClock = errors.New("invalid time of day")
)

// Date is a calendar date without time-of-day or location. The zero value is
// not a valid date. Date is comparable and safe to use as a map key, which
// time.Time is not (wall clock reading and location pointer take part in ==).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// New builds a date from its components, normalizing out-of-range values
// the way time.Date does (February 30 becomes March 1 or 2).
func New(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in local time.
func Today() Date {
	return DateOf(time.Now())
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns the date at midnight UTC. The engine treats all dates as
// naive, so a fixed location keeps arithmetic free of DST anomalies.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At combines the date with a time of day, again in UTC.
func (d Date) At(c Clock) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, time.UTC)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths returns the date n months after d. Out-of-range days normalize
// the way time.Time.AddDate does (Jan 31 + 1 month = Mar 2 or Mar 3).
func (d Date) AddMonths(n int) Date {
	return DateOf(d.Time().AddDate(0, n, 0))
}

// Weekday returns the day of the week for d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Compare returns -1, 0 or 1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d == other:
		return 0
	case d.Time().Before(other.Time()):
		return -1
	default:
		return 1
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// DaysUntil returns the number of whole days from d to other; negative if
// other is before d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// MonthsUntil returns the number of whole calendar months from d to other,
// ignoring the day-of-month components.
func (d Date) MonthsUntil(other Date) int {
	return (other.Year-d.Year)*12 + int(other.Month) - int(d.Month)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a HH:MM time of day. Seconds, if present, are ignored.
func ParseClock(s string) (Clock, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); n < 2 || err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ClockOr parses s and falls back to def when s is empty or malformed.
// Stored records carry times as free-form strings, so a single lenient
// entry point keeps the fallback uniform across call sites.
func ClockOr(s string, def Clock) Clock {
	if s == "" {
		return def
	}
	c, err := ParseClock(s)
	if err != nil {
		return def
	}
	return c
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Range is an inclusive window of calendar dates.
type Range struct {
	Start Date
	End   Date
}

// NewRange builds a window from two ISO date strings.
func NewRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// IsValid reports whether the window is non-inverted. An inverted window is
// a caller error; the engine treats it as an empty window rather than
// failing the whole aggregation.
func (r Range) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Contains reports whether d falls inside the window, bounds included.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of dates in the window, 0 for an invalid window.
func (r Range) Days() int {
	if !r.IsValid() {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// String formats the window as "start..end".
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
