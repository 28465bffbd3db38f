// Package schedule expands weekly work schedules and one-off shifts into
// concrete shift occurrences for a window. Expansion is weekday driven
// rather than rule driven: an active weekly schedule yields one shift per
// matching weekday inside any window, indefinitely.
//
// Leave exclusion lives at this layer on purpose. A shift must never appear
// on a day the employee is confirmed absent, no matter which other filters a
// caller has active, so the suppression is part of expansion itself.
package schedule

import (
	"time"

	"github.com/samber/mo"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
)

// Weekly is a recurring weekly work schedule. It has no end date; it keeps
// producing shifts while Active.
type Weekly struct {
	ID     string
	UserID string
	Day    time.Weekday
	Start  date.Clock
	End    date.Clock
	Active bool
}

// OverrideKey identifies a per-date schedule override.
type OverrideKey struct {
	ScheduleID string
	Date       date.Date
}

// Override adjusts or cancels a single date's shift. A cancelled override
// suppresses the shift entirely; otherwise the present fields replace the
// schedule defaults for that date only.
type Override struct {
	Start     mo.Option[date.Clock]
	End       mo.Option[date.Clock]
	Cancelled bool
}

// OneOff is a single-date shift outside any weekly pattern.
type OneOff struct {
	ID     string
	UserID string
	Date   date.Date
	Start  date.Clock
	End    date.Clock
}

// LeaveKey identifies one approved absence day of one user.
type LeaveKey struct {
	UserID string
	Date   date.Date
}

// LeaveDays is the set of approved absence days. A nil map means no leave.
type LeaveDays map[LeaveKey]struct{}

// Contains reports whether the user is absent on d.
func (l LeaveDays) Contains(userID string, d date.Date) bool {
	_, ok := l[LeaveKey{UserID: userID, Date: d}]
	return ok
}

// Shift is one concrete expanded occurrence.
type Shift struct {
	ScheduleID  string
	UserID      string
	Date        date.Date
	Start       time.Time
	End         time.Time
	HasOverride bool
	OneOff      bool
}

// ExpandWeekly returns the shifts of one weekly schedule inside window.
// Every window date with a matching weekday produces a shift, unless the
// user is on leave that day or a cancelled override exists for it. A
// non-cancelled override replaces the start/end it carries.
func ExpandWeekly(w Weekly, window date.Range, overrides map[OverrideKey]Override, leave LeaveDays) []Shift {
	if !w.Active || !window.IsValid() {
		return nil
	}

	var shifts []Shift
	for d := window.Start; !d.After(window.End); d = d.AddDays(1) {
		if d.Weekday() != w.Day {
			continue
		}
		if leave.Contains(w.UserID, d) {
			continue
		}

		ov, hasOv := overrides[OverrideKey{ScheduleID: w.ID, Date: d}]
		if hasOv && ov.Cancelled {
			continue
		}

		start := w.Start
		end := w.End
		if hasOv {
			start = ov.Start.OrElse(start)
			end = ov.End.OrElse(end)
		}

		startAt, endAt := shiftTimes(d, start, end)
		shifts = append(shifts, Shift{
			ScheduleID:  w.ID,
			UserID:      w.UserID,
			Date:        d,
			Start:       startAt,
			End:         endAt,
			HasOverride: hasOv,
		})
	}
	return shifts
}

// ExpandOneOff returns the shift of a one-off entry, if its date falls in
// the window and the user is not on leave. One-off entries bypass weekday
// matching and the override table.
func ExpandOneOff(o OneOff, window date.Range, leave LeaveDays) (Shift, bool) {
	if !window.IsValid() || !window.Contains(o.Date) {
		return Shift{}, false
	}
	if leave.Contains(o.UserID, o.Date) {
		return Shift{}, false
	}
	start, end := shiftTimes(o.Date, o.Start, o.End)
	return Shift{
		ScheduleID: o.ID,
		UserID:     o.UserID,
		Date:       o.Date,
		Start:      start,
		End:        end,
		OneOff:     true,
	}, true
}

// shiftTimes resolves a shift's concrete times. An end before the start, as a
// partial override can produce, collapses to the start so no shift inverts.
func shiftTimes(d date.Date, start, end date.Clock) (time.Time, time.Time) {
	startAt := d.At(start)
	endAt := d.At(end)
	if endAt.Before(startAt) {
		endAt = startAt
	}
	return startAt, endAt
}
