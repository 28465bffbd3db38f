// Package memory provides an in-memory Storage implementation for tests,
// examples and small single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage"
)

// Store implements storage.Storage using in-memory maps.
type Store struct {
	mu sync.RWMutex

	tasks          map[string]storage.TaskDefinition
	skipped        map[instance.Key]struct{}
	completed      map[instance.Key]struct{}
	overrides      map[instance.Key]instance.TimeOverride
	leaves         map[string]storage.LeaveRequest
	logs           map[string]storage.LogEntry
	importantDates map[string]storage.ImportantDate
	weekly         map[string]schedule.Weekly
	shiftOverrides map[schedule.OverrideKey]schedule.Override
	oneOffs        map[string]schedule.OneOff
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks:          make(map[string]storage.TaskDefinition),
		skipped:        make(map[instance.Key]struct{}),
		completed:      make(map[instance.Key]struct{}),
		overrides:      make(map[instance.Key]instance.TimeOverride),
		leaves:         make(map[string]storage.LeaveRequest),
		logs:           make(map[string]storage.LogEntry),
		importantDates: make(map[string]storage.ImportantDate),
		weekly:         make(map[string]schedule.Weekly),
		shiftOverrides: make(map[schedule.OverrideKey]schedule.Override),
		oneOffs:        make(map[string]schedule.OneOff),
	}
}

// Write operations. IDs left empty are assigned a fresh UUID; the assigned
// ID is returned.

// PutTask stores a task definition.
func (s *Store) PutTask(t storage.TaskDefinition) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tasks[t.ID] = t
	return t.ID
}

// SkipInstance records a skip for one occurrence.
func (s *Store) SkipInstance(key instance.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped[key] = struct{}{}
}

// CompleteInstance records a completion for one occurrence.
func (s *Store) CompleteInstance(key instance.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[key] = struct{}{}
}

// OverrideInstance records a time override for one occurrence.
func (s *Store) OverrideInstance(key instance.Key, ov instance.TimeOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = ov
}

// DeleteOverride removes a time override; the definition default applies on
// the next aggregation.
func (s *Store) DeleteOverride(key instance.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, key)
}

// PutLeave stores a leave request.
func (s *Store) PutLeave(r storage.LeaveRequest) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.leaves[r.ID] = r
	return r.ID
}

// PutLog stores a log entry.
func (s *Store) PutLog(e storage.LogEntry) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.logs[e.ID] = e
	return e.ID
}

// PutImportantDate stores a yearly recurring date.
func (s *Store) PutImportantDate(d storage.ImportantDate) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	s.importantDates[d.ID] = d
	return d.ID
}

// PutWeeklySchedule stores a weekly schedule.
func (s *Store) PutWeeklySchedule(w schedule.Weekly) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	s.weekly[w.ID] = w
	return w.ID
}

// PutScheduleOverride stores a per-date schedule override.
func (s *Store) PutScheduleOverride(key schedule.OverrideKey, ov schedule.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shiftOverrides[key] = ov
}

// PutOneOffSchedule stores a single-date schedule entry.
func (s *Store) PutOneOffSchedule(o schedule.OneOff) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	s.oneOffs[o.ID] = o
	return o.ID
}

// Storage interface (read side).

// TaskDefinitions implements storage.Storage.
func (s *Store) TaskDefinitions(_ context.Context, window date.Range) ([]storage.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var defs []storage.TaskDefinition
	for _, t := range s.tasks {
		if t.Recurring {
			if !t.Due.After(window.End) {
				defs = append(defs, t)
			}
			continue
		}
		if window.Contains(t.Due) {
			defs = append(defs, t)
		}
	}
	return defs, nil
}

// TaskExceptions implements storage.Storage.
func (s *Store) TaskExceptions(_ context.Context, definitionIDs []string) (instance.Tables, error) {
	wanted := make(map[string]bool, len(definitionIDs))
	for _, id := range definitionIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := instance.Tables{
		Skipped:   make(map[instance.Key]struct{}),
		Completed: make(map[instance.Key]struct{}),
		Overrides: make(map[instance.Key]instance.TimeOverride),
	}
	for k := range s.skipped {
		if wanted[k.DefinitionID] {
			tables.Skipped[k] = struct{}{}
		}
	}
	for k := range s.completed {
		if wanted[k.DefinitionID] {
			tables.Completed[k] = struct{}{}
		}
	}
	for k, ov := range s.overrides {
		if wanted[k.DefinitionID] {
			tables.Overrides[k] = ov
		}
	}
	return tables, nil
}

// LeaveRequests implements storage.Storage.
func (s *Store) LeaveRequests(_ context.Context, window date.Range) ([]storage.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []storage.LeaveRequest
	for _, r := range s.leaves {
		for _, d := range r.Days() {
			if window.Contains(d) {
				requests = append(requests, r)
				break
			}
		}
	}
	return requests, nil
}

// LogEntries implements storage.Storage.
func (s *Store) LogEntries(_ context.Context, window date.Range, categories []string) ([]storage.LogEntry, error) {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []storage.LogEntry
	for _, e := range s.logs {
		if wanted[e.Category] && window.Contains(e.Date) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ImportantDates implements storage.Storage.
func (s *Store) ImportantDates(_ context.Context) ([]storage.ImportantDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]storage.ImportantDate, 0, len(s.importantDates))
	for _, d := range s.importantDates {
		dates = append(dates, d)
	}
	return dates, nil
}

// WeeklySchedules implements storage.Storage.
func (s *Store) WeeklySchedules(_ context.Context) ([]schedule.Weekly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]schedule.Weekly, 0, len(s.weekly))
	for _, w := range s.weekly {
		schedules = append(schedules, w)
	}
	return schedules, nil
}

// ScheduleOverrides implements storage.Storage.
func (s *Store) ScheduleOverrides(_ context.Context, window date.Range) (map[schedule.OverrideKey]schedule.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overrides := make(map[schedule.OverrideKey]schedule.Override)
	for k, ov := range s.shiftOverrides {
		if window.Contains(k.Date) {
			overrides[k] = ov
		}
	}
	return overrides, nil
}

// OneOffSchedules implements storage.Storage.
func (s *Store) OneOffSchedules(_ context.Context, window date.Range) ([]schedule.OneOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []schedule.OneOff
	for _, o := range s.oneOffs {
		if window.Contains(o.Date) {
			entries = append(entries, o)
		}
	}
	return entries, nil
}
