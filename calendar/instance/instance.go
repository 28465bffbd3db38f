// Package instance layers per-occurrence exception records over the raw
// occurrence dates produced by recurrence expansion. An exception record
// never changes the definition it belongs to, only the single occurrence it
// keys: a skip removes the occurrence, a completion marks it done, a time
// override replaces its effective time.
package instance

import (
	"time"

	"github.com/samber/mo"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
)

// Key is the identity of one concrete occurrence. Every exception record is
// keyed by this pair; using a comparable struct instead of the stored
// "<id>-<date>" string rules out concatenation collisions.
type Key struct {
	DefinitionID string
	Date         date.Date
}

// Status is the derived state of an occurrence.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
)

// String returns the wire name used in serialized event props.
func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "pending"
}

// TimeOverride replaces the effective time of a single occurrence. Either
// side may be absent, in which case the definition default applies for that
// side only.
type TimeOverride struct {
	Start mo.Option[date.Clock]
	End   mo.Option[date.Clock]
}

// Tables are the three exception sets of one or more definitions. Nil maps
// are valid and mean "no records of that kind"; absence of a key is the
// normal case, never an error.
type Tables struct {
	Skipped   map[Key]struct{}
	Completed map[Key]struct{}
	Overrides map[Key]TimeOverride
}

// IsSkipped reports whether the occurrence has a skip record.
func (t Tables) IsSkipped(k Key) bool {
	_, ok := t.Skipped[k]
	return ok
}

// IsCompleted reports whether the occurrence has a completion record.
func (t Tables) IsCompleted(k Key) bool {
	_, ok := t.Completed[k]
	return ok
}

// Override returns the occurrence's time override, if any.
func (t Tables) Override(k Key) (TimeOverride, bool) {
	ov, ok := t.Overrides[k]
	return ov, ok
}

// Merge combines t with other into a new Tables value. Useful when exception
// records for several definitions are loaded in separate queries.
func (t Tables) Merge(other Tables) Tables {
	out := Tables{
		Skipped:   make(map[Key]struct{}, len(t.Skipped)+len(other.Skipped)),
		Completed: make(map[Key]struct{}, len(t.Completed)+len(other.Completed)),
		Overrides: make(map[Key]TimeOverride, len(t.Overrides)+len(other.Overrides)),
	}
	for k := range t.Skipped {
		out.Skipped[k] = struct{}{}
	}
	for k := range other.Skipped {
		out.Skipped[k] = struct{}{}
	}
	for k := range t.Completed {
		out.Completed[k] = struct{}{}
	}
	for k := range other.Completed {
		out.Completed[k] = struct{}{}
	}
	for k, v := range t.Overrides {
		out.Overrides[k] = v
	}
	for k, v := range other.Overrides {
		out.Overrides[k] = v
	}
	return out
}

// Defaults are a definition's effective default times, applied to every
// occurrence that has no override.
type Defaults struct {
	AllDay bool
	Start  date.Clock
	End    date.Clock
}

// Resolved is one surviving occurrence with its effective state.
type Resolved struct {
	Date        date.Date
	Start       time.Time
	End         time.Time
	Status      Status
	HasOverride bool
}

// Resolve applies the exception tables to the raw occurrence dates of one
// definition. Skipped occurrences are removed before anything else, so a
// skip always wins over a completion record on the same instance. The
// result order follows the input order.
//
// Resolve is a pure function of its inputs: deleting an override record and
// resolving again restores the definition default.
func Resolve(definitionID string, dates []date.Date, defaults Defaults, tables Tables) []Resolved {
	resolved := make([]Resolved, 0, len(dates))
	for _, d := range dates {
		key := Key{DefinitionID: definitionID, Date: d}
		if tables.IsSkipped(key) {
			continue
		}

		ov, hasOv := tables.Override(key)
		start, end := EffectiveTimes(d, defaults, ov, hasOv)

		status := StatusPending
		if tables.IsCompleted(key) {
			status = StatusCompleted
		}

		resolved = append(resolved, Resolved{
			Date:        d,
			Start:       start,
			End:         end,
			Status:      status,
			HasOverride: hasOv,
		})
	}
	return resolved
}

// EffectiveTimes is the single place where a concrete occurrence time is
// derived from definition defaults and an optional per-instance override.
// All-day definitions pin both bounds to the date itself and ignore
// overrides. An end before the start collapses to the start, preserving the
// start <= end event invariant.
func EffectiveTimes(d date.Date, defaults Defaults, override TimeOverride, hasOverride bool) (start, end time.Time) {
	if defaults.AllDay {
		t := d.Time()
		return t, t
	}

	startClock := defaults.Start
	endClock := defaults.End
	if hasOverride {
		startClock = override.Start.OrElse(startClock)
		endClock = override.End.OrElse(endClock)
	}

	start = d.At(startClock)
	end = d.At(endClock)
	if end.Before(start) {
		end = start
	}
	return start, end
}
