// Command example seeds the in-memory store with a small household and
// prints the aggregated calendar for one month, once as the admin dashboard
// and once as a regular member. With -ics it also writes the admin snapshot
// as an iCalendar file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/samber/mo"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/ics"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage/memory"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/visibility"
)

func main() {
	icsPath := flag.String("ics", "", "write the admin snapshot to this .ics file")
	flag.Parse()

	store := seedStore()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	agg, err := calendar.NewAggregator(calendar.Config{Storage: store, Logger: logger})
	if err != nil {
		logger.Error("building aggregator", "error", err)
		os.Exit(1)
	}

	window, err := date.NewRange("2024-06-01", "2024-06-30")
	if err != nil {
		logger.Error("building window", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	filters := calendar.AllSources("health", "meals")

	adminEvents, err := agg.Events(ctx, calendar.Request{Window: window, Filters: filters})
	if err != nil {
		logger.Error("aggregating admin view", "error", err)
		os.Exit(1)
	}
	printAgenda("Admin dashboard", adminEvents)

	bobEvents, err := agg.Events(ctx, calendar.Request{
		Window:  window,
		Filters: filters,
		Viewer:  &visibilityViewerBob,
	})
	if err != nil {
		logger.Error("aggregating member view", "error", err)
		os.Exit(1)
	}
	printAgenda("Bob's calendar", bobEvents)

	if *icsPath != "" {
		f, err := os.Create(*icsPath)
		if err != nil {
			logger.Error("creating ics file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := ics.Encode(ics.Snapshot(adminEvents), f); err != nil {
			logger.Error("writing ics file", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d events to %s\n", len(adminEvents), *icsPath)
	}
}

func printAgenda(heading string, events []calendar.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	fmt.Printf("\n== %s (%d events) ==\n", heading, len(events))
	for _, e := range events {
		when := e.Start.Format("Mon Jan 02 15:04")
		if e.AllDay {
			when = e.Start.Format("Mon Jan 02") + " (all day)"
		}
		fmt.Printf("  %-22s %-10s %s\n", when, e.Source, e.Title)
	}
}

func mustDate(s string) date.Date {
	d, err := date.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

var visibilityViewerBob = visibility.Viewer{UserID: "bob", GroupIDs: []string{"kids-chores"}}

func allTargets() []visibility.Target {
	return []visibility.Target{{Kind: visibility.KindAll}}
}

func adminTargets() []visibility.Target {
	return []visibility.Target{{Kind: visibility.KindAllAdmins}}
}

func groupTargets(ids ...string) []visibility.Target {
	targets := make([]visibility.Target, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, visibility.Target{Kind: visibility.KindGroup, ID: id})
	}
	return targets
}

func seedStore() *memory.Store {
	store := memory.New()

	// Recurring chores.
	trashID := store.PutTask(storage.TaskDefinition{
		Title:     "Take out the trash",
		Category:  "chores",
		Priority:  "normal",
		Due:       mustDate("2024-01-01"),
		Recurring: true,
		Rule:      "FREQ=WEEKLY;BYDAY=MO,TH",
		StartTime: "08:00",
		EndTime:   "08:15",
		Assignees: allTargets(),
	})
	store.PutTask(storage.TaskDefinition{
		Title:     "Water the plants",
		Category:  "chores",
		Due:       mustDate("2024-03-10"),
		Recurring: true,
		Rule:      "FREQ=DAILY;INTERVAL=3",
		StartTime: "18:30",
		Assignees: groupTargets("kids-chores"),
	})
	store.PutTask(storage.TaskDefinition{
		Title:     "Pay the rent",
		Category:  "finance",
		Priority:  "high",
		Due:       mustDate("2024-01-01"),
		Recurring: true,
		Rule:      "FREQ=MONTHLY",
		AllDay:    true,
		Assignees: adminTargets(),
		Viewers:   allTargets(),
	})

	// One Monday's trash run was done early, another skipped for a holiday.
	store.CompleteInstance(instance.Key{DefinitionID: trashID, Date: mustDate("2024-06-03")})
	store.SkipInstance(instance.Key{DefinitionID: trashID, Date: mustDate("2024-06-17")})
	store.OverrideInstance(
		instance.Key{DefinitionID: trashID, Date: mustDate("2024-06-20")},
		instance.TimeOverride{Start: mo.Some(date.Clock{Hour: 19})},
	)

	// Bob is away a week in June.
	store.PutLeave(storage.LeaveRequest{
		UserID:    "bob",
		Status:    storage.LeaveApproved,
		Type:      "vacation",
		StartDate: mustDate("2024-06-10"),
		EndDate:   mustDate("2024-06-14"),
	})

	// Weekly schedules with one moved shift.
	bobShift := store.PutWeeklySchedule(schedule.Weekly{
		UserID: "bob",
		Day:    time.Monday,
		Start:  date.Clock{Hour: 9},
		End:    date.Clock{Hour: 17},
		Active: true,
	})
	store.PutWeeklySchedule(schedule.Weekly{
		UserID: "alice",
		Day:    time.Wednesday,
		Start:  date.Clock{Hour: 10},
		End:    date.Clock{Hour: 16},
		Active: true,
	})
	store.PutScheduleOverride(
		schedule.OverrideKey{ScheduleID: bobShift, Date: mustDate("2024-06-24")},
		schedule.Override{Start: mo.Some(date.Clock{Hour: 12}), End: mo.Some(date.Clock{Hour: 20})},
	)

	// Logs and birthdays.
	store.PutLog(storage.LogEntry{
		UserID:   "alice",
		Category: "health",
		Date:     mustDate("2024-06-05"),
		Title:    "Morning run, 5k",
	})
	store.PutImportantDate(storage.ImportantDate{
		Title: "Alice's birthday",
		Date:  mustDate("1990-06-21"),
	})

	return store
}
