package storage

import (
	"fmt"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/visibility"
)

// ErrorType classifies storage errors.
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// TaskDefinition is a stored task, recurring or one-off. For recurring
// definitions Due is the anchor date (the first possible occurrence) and
// Rule holds the recurrence rule string; for one-off tasks Due is the single
// due date and Rule is empty.
type TaskDefinition struct {
	ID       string
	Title    string
	Category string
	Priority string

	Due       date.Date
	Recurring bool
	Rule      string

	// AllDay tasks carry no times; otherwise StartTime/EndTime hold the
	// stored "HH:MM" strings, either of which may be empty.
	AllDay    bool
	StartTime string
	EndTime   string

	Assignees []visibility.Target
	Viewers   []visibility.Target
}

// LeaveStatus is the review state of a leave request. Only approved requests
// materialize as calendar events and as schedule-suppressing leave days.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveDenied   LeaveStatus = "denied"
)

// LeaveRequest is a stored absence request, either a contiguous range or an
// explicit set of selected dates.
type LeaveRequest struct {
	ID     string
	UserID string
	Status LeaveStatus
	Type   string

	StartDate date.Date
	EndDate   date.Date

	// SelectedDates, when non-empty, takes precedence over the contiguous
	// range and lists each absence day individually.
	SelectedDates []date.Date
}

// Days returns the concrete absence dates of the request, regardless of its
// status. The sanity cap guards against a corrupt range swallowing the
// caller's iteration budget.
func (r LeaveRequest) Days() []date.Date {
	if len(r.SelectedDates) > 0 {
		days := make([]date.Date, len(r.SelectedDates))
		copy(days, r.SelectedDates)
		return days
	}
	if r.StartDate.IsZero() || r.EndDate.Before(r.StartDate) {
		return nil
	}
	const maxLeaveDays = 366
	var days []date.Date
	for d := r.StartDate; !d.After(r.EndDate) && len(days) < maxLeaveDays; d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// LogEntry is one dated personal log record (e.g. a health or activity log).
type LogEntry struct {
	ID       string
	UserID   string
	Category string
	Date     date.Date
	Title    string
	Note     string
}

// ImportantDate is a yearly recurring date such as a birthday or
// anniversary. Date is the first occurrence; it repeats every year on the
// same month and day.
type ImportantDate struct {
	ID    string
	Title string
	Date  date.Date
	Color string
}
