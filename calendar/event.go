// Package calendar aggregates heterogeneous time-bound records into a
// single list of concrete calendar events for a date window. Recurring
// tasks and weekly schedules are expanded, per-instance exceptions applied
// and per-viewer visibility enforced; leave, logs and important dates are
// mapped through directly.
package calendar

import (
	"fmt"
	"time"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
)

// Source tags the origin of an event.
type Source int

const (
	SourceTask Source = iota
	SourceLeave
	SourceLog
	SourceImportantDate
	SourceSchedule
)

// String returns the wire name of the source.
func (s Source) String() string {
	switch s {
	case SourceTask:
		return "task"
	case SourceLeave:
		return "leave"
	case SourceLog:
		return "log"
	case SourceImportantDate:
		return "important-date"
	case SourceSchedule:
		return "schedule"
	default:
		return "unknown"
	}
}

// Event is the engine's single output type: one concrete occurrence with a
// globally unique, source-namespaced ID. Exactly one of the detail fields
// matching Source is non-nil. Events are constructed fresh on every
// aggregation call and never persisted.
type Event struct {
	ID     string
	Source Source
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
	Color  string

	Task          *TaskDetail
	Leave         *LeaveDetail
	Log           *LogDetail
	ImportantDate *ImportantDateDetail
	Schedule      *ScheduleDetail
}

// TaskDetail carries task-instance fields.
type TaskDetail struct {
	DefinitionID string
	InstanceDate date.Date
	Status       instance.Status
	Priority     string
	Category     string
	Recurring    bool
	HasOverride  bool
	ViewOnly     bool
}

// LeaveDetail carries approved-leave fields.
type LeaveDetail struct {
	RequestID string
	UserID    string
	Type      string
	Date      date.Date
}

// LogDetail carries personal-log fields.
type LogDetail struct {
	UserID   string
	Category string
	Note     string
}

// ImportantDateDetail carries yearly-date fields.
type ImportantDateDetail struct {
	// Anniversary counts the years since the first occurrence; 0 for the
	// first occurrence itself.
	Anniversary int
}

// ScheduleDetail carries shift fields.
type ScheduleDetail struct {
	ScheduleID  string
	UserID      string
	Date        date.Date
	HasOverride bool
	OneOff      bool
	ViewOnly    bool
}

// Props flattens the event's variant payload into a generic properties bag
// for UI-facing serialization. Internal logic should switch over Source
// instead of reading this map.
func (e Event) Props() map[string]any {
	props := map[string]any{
		"sourceType": e.Source.String(),
	}
	switch e.Source {
	case SourceTask:
		if d := e.Task; d != nil {
			props["definitionId"] = d.DefinitionID
			props["instanceDate"] = d.InstanceDate.String()
			props["status"] = d.Status.String()
			props["priority"] = d.Priority
			props["category"] = d.Category
			props["recurring"] = d.Recurring
			props["hasOverride"] = d.HasOverride
			props["isViewOnly"] = d.ViewOnly
		}
	case SourceLeave:
		if d := e.Leave; d != nil {
			props["requestId"] = d.RequestID
			props["userId"] = d.UserID
			props["leaveType"] = d.Type
			props["date"] = d.Date.String()
		}
	case SourceLog:
		if d := e.Log; d != nil {
			props["userId"] = d.UserID
			props["category"] = d.Category
			props["note"] = d.Note
		}
	case SourceImportantDate:
		if d := e.ImportantDate; d != nil {
			props["anniversary"] = d.Anniversary
		}
	case SourceSchedule:
		if d := e.Schedule; d != nil {
			props["scheduleId"] = d.ScheduleID
			props["userId"] = d.UserID
			props["date"] = d.Date.String()
			props["hasOverride"] = d.HasOverride
			props["oneOff"] = d.OneOff
			props["isViewOnly"] = d.ViewOnly
		}
	}
	return props
}

// Deterministic event IDs, namespaced by source. Recurring task instances
// embed the occurrence date so that the same instance keeps the same ID
// across aggregation calls.

func taskInstanceID(definitionID string, d date.Date) string {
	return fmt.Sprintf("task-%s-%s", definitionID, d)
}

func oneOffTaskID(definitionID string) string {
	return "task-" + definitionID
}

func leaveDayID(requestID string, d date.Date) string {
	return fmt.Sprintf("leave-%s-%s", requestID, d)
}

func logID(entryID string) string {
	return "log-" + entryID
}

func importantDateID(recordID string, year int) string {
	return fmt.Sprintf("important-%s-%d", recordID, year)
}

func shiftID(scheduleID string, d date.Date) string {
	return fmt.Sprintf("schedule-%s-%s", scheduleID, d)
}

func oneOffShiftID(entryID string) string {
	return "oneoff-" + entryID
}

// ColorScheme maps sources to display colors. Colors are plain strings
// passed through to the consumer; completed tasks get their own slot so a
// UI can dim them without inspecting props.
type ColorScheme struct {
	Task          string
	TaskCompleted string
	Leave         string
	Log           string
	ImportantDate string
	Schedule      string
}

// DefaultColors is used when the caller does not supply a scheme.
var DefaultColors = ColorScheme{
	Task:          "#3788d8",
	TaskCompleted: "#8fb9e8",
	Leave:         "#f59e0b",
	Log:           "#10b981",
	ImportantDate: "#ef4444",
	Schedule:      "#6366f1",
}
