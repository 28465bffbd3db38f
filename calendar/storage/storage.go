// Package storage defines the data-access boundary of the aggregation
// engine: the record types the engine reads and the Storage interface a
// backend (database, API client, fixture set) implements. The engine only
// ever reads through this interface; computed events are never written back.
package storage

import (
	"context"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
)

// Storage connects a backing store with the aggregation engine. Every query
// is bounded: implementations may return a superset of the requested window
// (the engine re-filters), but must not stream unbounded data. Please use
// the error types provided.
type Storage interface {
	// TaskDefinitions retrieves task definitions relevant to the window:
	// every recurring definition anchored on or before the window end, and
	// every one-off task due inside the window.
	TaskDefinitions(ctx context.Context, window date.Range) ([]TaskDefinition, error)

	// TaskExceptions retrieves the skip/completion/override tables for the
	// given definition IDs. Missing entries are the default case.
	TaskExceptions(ctx context.Context, definitionIDs []string) (instance.Tables, error)

	// LeaveRequests retrieves leave requests overlapping the window, in any
	// review state; the engine discards everything but approved requests.
	LeaveRequests(ctx context.Context, window date.Range) ([]LeaveRequest, error)

	// LogEntries retrieves log records inside the window for the given
	// categories. An empty category list means no categories, not all.
	LogEntries(ctx context.Context, window date.Range, categories []string) ([]LogEntry, error)

	// ImportantDates retrieves all yearly recurring dates. The set is small
	// and window-independent, since every record recurs indefinitely.
	ImportantDates(ctx context.Context) ([]ImportantDate, error)

	// WeeklySchedules retrieves all weekly schedules, active or not.
	WeeklySchedules(ctx context.Context) ([]schedule.Weekly, error)

	// ScheduleOverrides retrieves per-date schedule overrides inside the
	// window, keyed by (schedule ID, date).
	ScheduleOverrides(ctx context.Context, window date.Range) (map[schedule.OverrideKey]schedule.Override, error)

	// OneOffSchedules retrieves single-date schedule entries inside the
	// window.
	OneOffSchedules(ctx context.Context, window date.Range) ([]schedule.OneOff, error)
}
