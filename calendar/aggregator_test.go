package calendar

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage/memory"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/visibility"
)

func d(t *testing.T, s string) date.Date {
	t.Helper()
	parsed, err := date.ParseDate(s)
	require.NoError(t, err)
	return parsed
}

// June 2024: Mondays are the 3rd, 10th, 17th and 24th.
func juneWindow(t *testing.T) date.Range {
	t.Helper()
	return date.Range{Start: d(t, "2024-06-01"), End: d(t, "2024-06-30")}
}

func newAggregator(t *testing.T, store storage.Storage) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(Config{Storage: store})
	require.NoError(t, err)
	return agg
}

func eventIDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func findEvent(t *testing.T, events []Event, id string) Event {
	t.Helper()
	for _, e := range events {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("event %s not found in %v", id, eventIDs(events))
	return Event{}
}

func TestNewAggregator_RequiresStorage(t *testing.T) {
	_, err := NewAggregator(Config{})
	assert.Error(t, err)
}

func TestAggregator_InvertedWindowYieldsEmptyList(t *testing.T) {
	agg := newAggregator(t, memory.New())

	events, err := agg.Events(context.Background(), Request{
		Window:  date.Range{Start: d(t, "2024-06-30"), End: d(t, "2024-06-01")},
		Filters: AllSources(),
	})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestAggregator_RecurringTaskInstances(t *testing.T) {
	store := memory.New()
	store.PutTask(storage.TaskDefinition{
		ID:        "trash",
		Title:     "Take out the trash",
		Due:       d(t, "2024-01-01"),
		Recurring: true,
		Rule:      "FREQ=WEEKLY;BYDAY=MO",
		StartTime: "08:00",
		EndTime:   "08:15",
	})
	store.CompleteInstance(instance.Key{DefinitionID: "trash", Date: d(t, "2024-06-03")})
	store.SkipInstance(instance.Key{DefinitionID: "trash", Date: d(t, "2024-06-17")})
	store.OverrideInstance(
		instance.Key{DefinitionID: "trash", Date: d(t, "2024-06-24")},
		instance.TimeOverride{Start: mo.Some(date.Clock{Hour: 19})},
	)

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
	})
	require.NoError(t, err)

	// Four June Mondays minus the skipped one.
	require.Len(t, events, 3)
	assert.ElementsMatch(t, []string{
		"task-trash-2024-06-03",
		"task-trash-2024-06-10",
		"task-trash-2024-06-24",
	}, eventIDs(events))

	completed := findEvent(t, events, "task-trash-2024-06-03")
	require.NotNil(t, completed.Task)
	assert.Equal(t, instance.StatusCompleted, completed.Task.Status)
	assert.Equal(t, DefaultColors.TaskCompleted, completed.Color)
	assert.True(t, completed.Task.Recurring)

	regular := findEvent(t, events, "task-trash-2024-06-10")
	assert.Equal(t, instance.StatusPending, regular.Task.Status)
	assert.Equal(t, d(t, "2024-06-10").At(date.Clock{Hour: 8}), regular.Start)
	assert.Equal(t, d(t, "2024-06-10").At(date.Clock{Hour: 8, Minute: 15}), regular.End)

	moved := findEvent(t, events, "task-trash-2024-06-24")
	assert.True(t, moved.Task.HasOverride)
	assert.Equal(t, d(t, "2024-06-24").At(date.Clock{Hour: 19}), moved.Start)
}

func TestAggregator_OneOffTask(t *testing.T) {
	store := memory.New()
	store.PutTask(storage.TaskDefinition{
		ID:    "dentist",
		Title: "Dentist appointment",
		Due:   d(t, "2024-06-12"),
	})
	store.PutTask(storage.TaskDefinition{
		ID:    "outside",
		Title: "Next month",
		Due:   d(t, "2024-07-12"),
	})

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "task-dentist", events[0].ID)
	assert.False(t, events[0].Task.Recurring)
	// No stored time: the 09:00 fallback applies.
	assert.Equal(t, d(t, "2024-06-12").At(date.Clock{Hour: 9}), events[0].Start)
}

func TestAggregator_MalformedRuleExcludedQuietly(t *testing.T) {
	store := memory.New()
	store.PutTask(storage.TaskDefinition{
		ID:        "broken",
		Title:     "No frequency",
		Due:       d(t, "2024-01-01"),
		Recurring: true,
		Rule:      "INTERVAL=2;BYDAY=MO",
	})
	store.PutTask(storage.TaskDefinition{
		ID:    "fine",
		Title: "Still here",
		Due:   d(t, "2024-06-12"),
	})

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"task-fine"}, eventIDs(events))
}

func TestAggregator_LeaveEvents(t *testing.T) {
	store := memory.New()
	store.PutLeave(storage.LeaveRequest{
		ID: "vac", UserID: "bob", Status: storage.LeaveApproved, Type: "vacation",
		StartDate: d(t, "2024-06-10"), EndDate: d(t, "2024-06-12"),
	})
	store.PutLeave(storage.LeaveRequest{
		ID: "nope", UserID: "bob", Status: storage.LeaveDenied,
		StartDate: d(t, "2024-06-20"), EndDate: d(t, "2024-06-21"),
	})
	store.PutLeave(storage.LeaveRequest{
		ID: "maybe", UserID: "bob", Status: storage.LeavePending,
		StartDate: d(t, "2024-06-25"), EndDate: d(t, "2024-06-26"),
	})

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Leave: true},
	})
	require.NoError(t, err)

	// Only the approved request, one all-day event per day.
	assert.ElementsMatch(t, []string{
		"leave-vac-2024-06-10",
		"leave-vac-2024-06-11",
		"leave-vac-2024-06-12",
	}, eventIDs(events))
	for _, e := range events {
		assert.True(t, e.AllDay)
		assert.Equal(t, "Leave: vacation", e.Title)
		require.NotNil(t, e.Leave)
		assert.Equal(t, "bob", e.Leave.UserID)
	}
}

func TestAggregator_LeaveSuppressesSchedule(t *testing.T) {
	store := memory.New()
	store.PutWeeklySchedule(schedule.Weekly{
		ID: "sched-bob", UserID: "bob", Day: time.Monday,
		Start: date.Clock{Hour: 9}, End: date.Clock{Hour: 17}, Active: true,
	})
	store.PutLeave(storage.LeaveRequest{
		ID: "vac", UserID: "bob", Status: storage.LeaveApproved,
		StartDate: d(t, "2024-06-10"), EndDate: d(t, "2024-06-10"),
	})
	// An override on the leave day must not resurrect the shift.
	store.PutScheduleOverride(
		schedule.OverrideKey{ScheduleID: "sched-bob", Date: d(t, "2024-06-10")},
		schedule.Override{Start: mo.Some(date.Clock{Hour: 12})},
	)

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Schedules: true},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"schedule-sched-bob-2024-06-03",
		"schedule-sched-bob-2024-06-17",
		"schedule-sched-bob-2024-06-24",
	}, eventIDs(events))
}

func TestAggregator_ScheduleVisibility(t *testing.T) {
	store := memory.New()
	store.PutWeeklySchedule(schedule.Weekly{
		ID: "sched-bob", UserID: "bob", Day: time.Monday,
		Start: date.Clock{Hour: 9}, End: date.Clock{Hour: 17}, Active: true,
	})
	store.PutWeeklySchedule(schedule.Weekly{
		ID: "sched-alice", UserID: "alice", Day: time.Tuesday,
		Start: date.Clock{Hour: 10}, End: date.Clock{Hour: 16}, Active: true,
	})
	agg := newAggregator(t, store)
	window := date.Range{Start: d(t, "2024-06-03"), End: d(t, "2024-06-04")}

	t.Run("owner sees own shift as assigned", func(t *testing.T) {
		events, err := agg.Events(context.Background(), Request{
			Window:  window,
			Filters: Filters{Schedules: true},
			Viewer:  &visibility.Viewer{UserID: "bob"},
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "schedule-sched-bob-2024-06-03", events[0].ID)
		assert.False(t, events[0].Schedule.ViewOnly)
	})

	t.Run("admin sees all shifts, others view-only", func(t *testing.T) {
		events, err := agg.Events(context.Background(), Request{
			Window:  window,
			Filters: Filters{Schedules: true},
			Viewer:  &visibility.Viewer{UserID: "carol", Admin: true},
		})
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, e := range events {
			assert.True(t, e.Schedule.ViewOnly)
		}
	})

	t.Run("nil viewer sees everything assigned", func(t *testing.T) {
		events, err := agg.Events(context.Background(), Request{
			Window:  window,
			Filters: Filters{Schedules: true},
		})
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, e := range events {
			assert.False(t, e.Schedule.ViewOnly)
		}
	})
}

func TestAggregator_OneOffScheduleEntry(t *testing.T) {
	store := memory.New()
	store.PutOneOffSchedule(schedule.OneOff{
		ID: "extra", UserID: "bob", Date: d(t, "2024-06-12"),
		Start: date.Clock{Hour: 8}, End: date.Clock{Hour: 12},
	})

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Schedules: true},
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "oneoff-extra", events[0].ID)
	require.NotNil(t, events[0].Schedule)
	assert.True(t, events[0].Schedule.OneOff)
}

func TestAggregator_TaskVisibilityFailClosed(t *testing.T) {
	store := memory.New()
	store.PutTask(storage.TaskDefinition{
		ID:        "garden-task",
		Title:     "Weed the garden",
		Due:       d(t, "2024-06-12"),
		Assignees: []visibility.Target{{Kind: visibility.KindGroup, ID: "garden"}},
	})

	agg := newAggregator(t, store)
	request := func(viewer *visibility.Viewer) []Event {
		events, err := agg.Events(context.Background(), Request{
			Window:  juneWindow(t),
			Filters: Filters{Tasks: true},
			Viewer:  viewer,
		})
		require.NoError(t, err)
		return events
	}

	assert.Empty(t, request(&visibility.Viewer{UserID: "bob"}))

	member := request(&visibility.Viewer{UserID: "bob", GroupIDs: []string{"garden"}})
	require.Len(t, member, 1)
	assert.False(t, member[0].Task.ViewOnly)
}

func TestAggregator_TaskViewerListIsViewOnly(t *testing.T) {
	store := memory.New()
	store.PutTask(storage.TaskDefinition{
		ID:        "rent",
		Title:     "Pay the rent",
		Due:       d(t, "2024-06-12"),
		Assignees: []visibility.Target{{Kind: visibility.KindAllAdmins}},
		Viewers:   []visibility.Target{{Kind: visibility.KindAll}},
	})

	agg := newAggregator(t, store)
	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
		Viewer:  &visibility.Viewer{UserID: "bob"},
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.True(t, events[0].Task.ViewOnly)
}

func TestAggregator_ImportantDatesRecurYearly(t *testing.T) {
	store := memory.New()
	store.PutImportantDate(storage.ImportantDate{
		ID: "bday", Title: "Alice's birthday", Date: d(t, "1990-06-21"),
	})
	store.PutImportantDate(storage.ImportantDate{
		ID: "future", Title: "Not yet", Date: d(t, "2030-06-21"),
	})
	agg := newAggregator(t, store)

	t.Run("single year window", func(t *testing.T) {
		events, err := agg.Events(context.Background(), Request{
			Window:  juneWindow(t),
			Filters: Filters{ImportantDates: true},
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "important-bday-2024", events[0].ID)
		require.NotNil(t, events[0].ImportantDate)
		assert.Equal(t, 34, events[0].ImportantDate.Anniversary)
		assert.True(t, events[0].AllDay)
	})

	t.Run("window spanning two years", func(t *testing.T) {
		events, err := agg.Events(context.Background(), Request{
			Window:  date.Range{Start: d(t, "2023-01-01"), End: d(t, "2024-12-31")},
			Filters: Filters{ImportantDates: true},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"important-bday-2023", "important-bday-2024"}, eventIDs(events))
	})
}

func TestAggregator_LogCategories(t *testing.T) {
	store := memory.New()
	store.PutLog(storage.LogEntry{
		ID: "l1", UserID: "alice", Category: "health",
		Date: d(t, "2024-06-05"), Title: "Morning run",
	})
	store.PutLog(storage.LogEntry{
		ID: "l2", UserID: "alice", Category: "meals",
		Date: d(t, "2024-06-05"), Title: "Lunch",
	})

	agg := newAggregator(t, store)

	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{LogCategories: []string{"health"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"log-l1"}, eventIDs(events))

	none, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{},
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAggregator_Idempotent(t *testing.T) {
	store := seededStore(t)
	agg := newAggregator(t, store)
	req := Request{Window: juneWindow(t), Filters: AllSources("health")}

	first, err := agg.Events(context.Background(), req)
	require.NoError(t, err)
	second, err := agg.Events(context.Background(), req)
	require.NoError(t, err)

	sort.Slice(first, func(i, j int) bool { return first[i].ID < first[j].ID })
	sort.Slice(second, func(i, j int) bool { return second[i].ID < second[j].ID })
	assert.Equal(t, first, second)
}

func TestAggregator_UniqueEventIDs(t *testing.T) {
	store := seededStore(t)
	agg := newAggregator(t, store)

	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: AllSources("health"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	seen := make(map[string]bool)
	for _, e := range events {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestAggregator_EventInvariants(t *testing.T) {
	store := seededStore(t)
	agg := newAggregator(t, store)

	events, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: AllSources("health"),
	})
	require.NoError(t, err)

	for _, e := range events {
		assert.False(t, e.End.Before(e.Start), "event %s has end before start", e.ID)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Color)
		props := e.Props()
		assert.Equal(t, e.Source.String(), props["sourceType"])
	}
}

func TestAggregator_StorageFailureFailsCall(t *testing.T) {
	mockStore := new(storage.MockStorage)
	mockStore.On("TaskDefinitions", mock.Anything, mock.Anything).
		Return(nil, errors.New("backend down"))

	agg := newAggregator(t, mockStore)
	_, err := agg.Events(context.Background(), Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	mockStore.AssertExpectations(t)
}

func TestAggregator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockStore := new(storage.MockStorage)
	mockStore.On("TaskDefinitions", mock.Anything, mock.Anything).
		Return(nil, ctx.Err()).Maybe()
	mockStore.On("TaskExceptions", mock.Anything, mock.Anything).
		Return(instance.Tables{}, ctx.Err()).Maybe()

	agg := newAggregator(t, mockStore)
	_, err := agg.Events(ctx, Request{
		Window:  juneWindow(t),
		Filters: Filters{Tasks: true},
	})
	assert.Error(t, err)
}

// seededStore builds a store exercising every source at once.
func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()

	store.PutTask(storage.TaskDefinition{
		ID: "trash", Title: "Take out the trash",
		Due: d(t, "2024-01-01"), Recurring: true,
		Rule: "FREQ=WEEKLY;BYDAY=MO,TH", StartTime: "08:00",
	})
	store.PutTask(storage.TaskDefinition{
		ID: "dentist", Title: "Dentist", Due: d(t, "2024-06-12"),
	})
	store.CompleteInstance(instance.Key{DefinitionID: "trash", Date: d(t, "2024-06-03")})
	store.SkipInstance(instance.Key{DefinitionID: "trash", Date: d(t, "2024-06-17")})

	store.PutLeave(storage.LeaveRequest{
		ID: "vac", UserID: "bob", Status: storage.LeaveApproved,
		StartDate: d(t, "2024-06-10"), EndDate: d(t, "2024-06-14"),
	})
	store.PutLog(storage.LogEntry{
		ID: "run", UserID: "alice", Category: "health",
		Date: d(t, "2024-06-05"), Title: "Morning run",
	})
	store.PutImportantDate(storage.ImportantDate{
		ID: "bday", Title: "Alice's birthday", Date: d(t, "1990-06-21"),
	})
	store.PutWeeklySchedule(schedule.Weekly{
		ID: "sched-bob", UserID: "bob", Day: time.Monday,
		Start: date.Clock{Hour: 9}, End: date.Clock{Hour: 17}, Active: true,
	})
	store.PutOneOffSchedule(schedule.OneOff{
		ID: "extra", UserID: "alice", Date: d(t, "2024-06-26"),
		Start: date.Clock{Hour: 8}, End: date.Clock{Hour: 12},
	})

	return store
}
