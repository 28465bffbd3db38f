package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/recurrence"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/visibility"
)

// defaultTaskClock is the fallback time of day for timed task definitions
// stored without an explicit time.
var defaultTaskClock = date.Clock{Hour: 9}

// Filters enables event sources per aggregation call. The zero value
// disables everything; use AllSources for an everything-on request. Log
// entries are enabled per category.
type Filters struct {
	Tasks          bool
	Leave          bool
	ImportantDates bool
	Schedules      bool
	LogCategories  []string
}

// AllSources returns filters with every source enabled for the given log
// categories.
func AllSources(logCategories ...string) Filters {
	return Filters{
		Tasks:          true,
		Leave:          true,
		ImportantDates: true,
		Schedules:      true,
		LogCategories:  logCategories,
	}
}

// Request is one aggregation call. A nil Viewer is the unrestricted admin
// dashboard context: no visibility filtering, everything Assigned.
type Request struct {
	Window  date.Range
	Filters Filters
	Viewer  *visibility.Viewer
}

// Config assembles an Aggregator.
type Config struct {
	// Storage is the data-access collaborator. Required.
	Storage storage.Storage
	// Recurrence is the expansion engine; nil gets a default engine.
	Recurrence *recurrence.Engine
	// Logger receives per-definition warnings; nil discards them.
	Logger *slog.Logger
	// Colors overrides DefaultColors when any field is set.
	Colors ColorScheme
}

// Aggregator produces the merged event list. It holds no mutable state and
// is safe for concurrent use; every call is a pure function of the storage
// snapshot it reads.
type Aggregator struct {
	store  storage.Storage
	engine *recurrence.Engine
	logger *slog.Logger
	colors ColorScheme
}

// NewAggregator creates an aggregator from config.
func NewAggregator(config Config) (*Aggregator, error) {
	if config.Storage == nil {
		return nil, errors.New("calendar: storage is required")
	}
	if config.Recurrence == nil {
		config.Recurrence = recurrence.NewEngine()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Colors == (ColorScheme{}) {
		config.Colors = DefaultColors
	}
	return &Aggregator{
		store:  config.Storage,
		engine: config.Recurrence,
		logger: config.Logger,
		colors: config.Colors,
	}, nil
}

// Events aggregates all enabled sources for the request window. Sources are
// fetched concurrently and merged after all complete; a storage failure in
// any source fails the whole call (no partial results). An inverted window
// is a caller error answered with an empty list rather than a failure, so
// aggregation stays total over its inputs. The merged list carries no two
// events with the same ID and is not sorted; ordering is the caller's
// concern.
func (a *Aggregator) Events(ctx context.Context, req Request) ([]Event, error) {
	if !req.Window.IsValid() {
		a.logger.Warn("rejecting inverted or empty window", "window", req.Window.String())
		return []Event{}, nil
	}

	var (
		tasks, leaves, logs []Event
		important, shifts   []Event
	)

	g, ctx := errgroup.WithContext(ctx)
	if req.Filters.Tasks {
		g.Go(func() error {
			var err error
			tasks, err = a.taskEvents(ctx, req.Window, req.Viewer)
			return err
		})
	}
	if req.Filters.Leave {
		g.Go(func() error {
			var err error
			leaves, err = a.leaveEvents(ctx, req.Window)
			return err
		})
	}
	if len(req.Filters.LogCategories) > 0 {
		g.Go(func() error {
			var err error
			logs, err = a.logEvents(ctx, req.Window, req.Filters.LogCategories)
			return err
		})
	}
	if req.Filters.ImportantDates {
		g.Go(func() error {
			var err error
			important, err = a.importantDateEvents(ctx, req.Window)
			return err
		})
	}
	if req.Filters.Schedules {
		g.Go(func() error {
			var err error
			shifts, err = a.scheduleEvents(ctx, req.Window, req.Viewer)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate events: %w", err)
	}

	return a.merge(tasks, leaves, logs, important, shifts), nil
}

// merge concatenates per-source slices, dropping any event whose ID has
// been seen already. Source order is fixed so repeated calls on the same
// snapshot produce identical lists.
func (a *Aggregator) merge(sources ...[]Event) []Event {
	merged := make([]Event, 0)
	seen := make(map[string]bool)
	for _, events := range sources {
		for _, e := range events {
			if seen[e.ID] {
				a.logger.Warn("dropping duplicate event id", "id", e.ID)
				continue
			}
			seen[e.ID] = true
			merged = append(merged, e)
		}
	}
	return merged
}

func (a *Aggregator) taskEvents(ctx context.Context, window date.Range, viewer *visibility.Viewer) ([]Event, error) {
	defs, err := a.store.TaskDefinitions(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load task definitions: %w", err)
	}
	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ID)
	}
	tables, err := a.store.TaskExceptions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load task exceptions: %w", err)
	}

	var events []Event
	for _, def := range defs {
		level := visibility.Evaluate(def.Assignees, def.Viewers, viewer)
		if level == visibility.NotVisible {
			continue
		}

		dates, ok := a.occurrenceDates(def, window)
		if !ok {
			continue
		}

		for _, r := range instance.Resolve(def.ID, dates, taskDefaults(def), tables) {
			id := oneOffTaskID(def.ID)
			if def.Recurring {
				id = taskInstanceID(def.ID, r.Date)
			}
			color := a.colors.Task
			if r.Status == instance.StatusCompleted {
				color = a.colors.TaskCompleted
			}
			events = append(events, Event{
				ID:     id,
				Source: SourceTask,
				Title:  def.Title,
				Start:  r.Start,
				End:    r.End,
				AllDay: def.AllDay,
				Color:  color,
				Task: &TaskDetail{
					DefinitionID: def.ID,
					InstanceDate: r.Date,
					Status:       r.Status,
					Priority:     def.Priority,
					Category:     def.Category,
					Recurring:    def.Recurring,
					HasOverride:  r.HasOverride,
					ViewOnly:     level == visibility.ViewOnly,
				},
			})
		}
	}
	return events, nil
}

// occurrenceDates returns the raw occurrence dates of a definition inside
// the window. A recurring definition with a malformed rule is a recoverable
// per-definition failure: it is logged and excluded without affecting the
// rest of the aggregation.
func (a *Aggregator) occurrenceDates(def storage.TaskDefinition, window date.Range) ([]date.Date, bool) {
	if !def.Recurring {
		if !window.Contains(def.Due) {
			return nil, false
		}
		return []date.Date{def.Due}, true
	}

	rule, err := recurrence.ParseRule(def.Rule)
	if err != nil {
		a.logger.Warn("excluding task with unparseable recurrence rule",
			"definition_id", def.ID, "rule", def.Rule, "error", err)
		return nil, false
	}
	return a.engine.Expand(rule, def.Due, window), true
}

// taskDefaults derives a definition's effective default times. Stored
// records may omit times entirely; the fallback clock and the end-follows-
// start rule live here so every expansion path resolves times identically.
func taskDefaults(def storage.TaskDefinition) instance.Defaults {
	if def.AllDay {
		return instance.Defaults{AllDay: true}
	}
	start := date.ClockOr(def.StartTime, defaultTaskClock)
	return instance.Defaults{
		Start: start,
		End:   date.ClockOr(def.EndTime, start),
	}
}

func (a *Aggregator) leaveEvents(ctx context.Context, window date.Range) ([]Event, error) {
	requests, err := a.store.LeaveRequests(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load leave requests: %w", err)
	}

	var events []Event
	for _, r := range requests {
		if r.Status != storage.LeaveApproved {
			continue
		}
		title := "Leave"
		if r.Type != "" {
			title = "Leave: " + r.Type
		}
		for _, d := range r.Days() {
			if !window.Contains(d) {
				continue
			}
			events = append(events, Event{
				ID:     leaveDayID(r.ID, d),
				Source: SourceLeave,
				Title:  title,
				Start:  d.Time(),
				End:    d.Time(),
				AllDay: true,
				Color:  a.colors.Leave,
				Leave: &LeaveDetail{
					RequestID: r.ID,
					UserID:    r.UserID,
					Type:      r.Type,
					Date:      d,
				},
			})
		}
	}
	return events, nil
}

func (a *Aggregator) logEvents(ctx context.Context, window date.Range, categories []string) ([]Event, error) {
	entries, err := a.store.LogEntries(ctx, window, categories)
	if err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}

	var events []Event
	for _, e := range entries {
		if !window.Contains(e.Date) {
			continue
		}
		events = append(events, Event{
			ID:     logID(e.ID),
			Source: SourceLog,
			Title:  e.Title,
			Start:  e.Date.Time(),
			End:    e.Date.Time(),
			AllDay: true,
			Color:  a.colors.Log,
			Log: &LogDetail{
				UserID:   e.UserID,
				Category: e.Category,
				Note:     e.Note,
			},
		})
	}
	return events, nil
}

func (a *Aggregator) importantDateEvents(ctx context.Context, window date.Range) ([]Event, error) {
	records, err := a.store.ImportantDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load important dates: %w", err)
	}

	var events []Event
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		color := rec.Color
		if color == "" {
			color = a.colors.ImportantDate
		}
		// Yearly recurrence: one candidate per window year on the record's
		// month and day.
		for year := window.Start.Year; year <= window.End.Year; year++ {
			if year < rec.Date.Year {
				continue
			}
			d := date.New(year, rec.Date.Month, rec.Date.Day)
			if !window.Contains(d) {
				continue
			}
			events = append(events, Event{
				ID:     importantDateID(rec.ID, year),
				Source: SourceImportantDate,
				Title:  rec.Title,
				Start:  d.Time(),
				End:    d.Time(),
				AllDay: true,
				Color:  color,
				ImportantDate: &ImportantDateDetail{
					Anniversary: year - rec.Date.Year,
				},
			})
		}
	}
	return events, nil
}

func (a *Aggregator) scheduleEvents(ctx context.Context, window date.Range, viewer *visibility.Viewer) ([]Event, error) {
	weekly, err := a.store.WeeklySchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load weekly schedules: %w", err)
	}
	overrides, err := a.store.ScheduleOverrides(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load schedule overrides: %w", err)
	}
	oneOffs, err := a.store.OneOffSchedules(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load one-off schedules: %w", err)
	}
	// The leave query is repeated here rather than shared with the leave
	// source so each source stays an independent fetch.
	requests, err := a.store.LeaveRequests(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load leave requests: %w", err)
	}
	leave := approvedLeaveDays(requests)

	var events []Event
	for _, w := range weekly {
		level := shiftVisibility(w.UserID, viewer)
		if level == visibility.NotVisible {
			continue
		}
		for _, shift := range schedule.ExpandWeekly(w, window, overrides, leave) {
			events = append(events, a.shiftEvent(shiftID(shift.ScheduleID, shift.Date), shift, level))
		}
	}
	for _, o := range oneOffs {
		level := shiftVisibility(o.UserID, viewer)
		if level == visibility.NotVisible {
			continue
		}
		shift, ok := schedule.ExpandOneOff(o, window, leave)
		if !ok {
			continue
		}
		events = append(events, a.shiftEvent(oneOffShiftID(o.ID), shift, level))
	}
	return events, nil
}

func (a *Aggregator) shiftEvent(id string, shift schedule.Shift, level visibility.Level) Event {
	return Event{
		ID:     id,
		Source: SourceSchedule,
		Title:  "Shift",
		Start:  shift.Start,
		End:    shift.End,
		Color:  a.colors.Schedule,
		Schedule: &ScheduleDetail{
			ScheduleID:  shift.ScheduleID,
			UserID:      shift.UserID,
			Date:        shift.Date,
			HasOverride: shift.HasOverride,
			OneOff:      shift.OneOff,
			ViewOnly:    level == visibility.ViewOnly,
		},
	}
}

// shiftVisibility treats the shift owner as its sole assignee and admins as
// its viewer list: owners act on their own shifts, admins see everyone's.
func shiftVisibility(ownerID string, viewer *visibility.Viewer) visibility.Level {
	return visibility.Evaluate(
		[]visibility.Target{{Kind: visibility.KindUser, ID: ownerID}},
		[]visibility.Target{{Kind: visibility.KindAllAdmins}},
		viewer,
	)
}

// approvedLeaveDays flattens approved requests into the per-user day set
// the schedule expander suppresses against.
func approvedLeaveDays(requests []storage.LeaveRequest) schedule.LeaveDays {
	leave := make(schedule.LeaveDays)
	for _, r := range requests {
		if r.Status != storage.LeaveApproved {
			continue
		}
		for _, d := range r.Days() {
			leave[schedule.LeaveKey{UserID: r.UserID, Date: d}] = struct{}{}
		}
	}
	return leave
}
