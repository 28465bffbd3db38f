// Package ics exports aggregation results and recurring definitions as
// iCalendar data, so household calendars can be subscribed to from any
// RFC 5545 client. Export is one-way: the engine never reads ICS back.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/recurrence"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/storage"
)

const (
	prodID     = "-//household-manager//calendar-export//EN"
	dateLayout = "20060102"
)

// Snapshot renders materialized events into a VCALENDAR. Every event
// becomes one VEVENT; all-day events use DATE values with the conventional
// exclusive end.
func Snapshot(events []calendar.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, e := range events {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.ID)
		ev.Props.SetText(ical.PropSummary, e.Title)
		ev.Props.SetText(ical.PropCategories, e.Source.String())
		ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		if e.Color != "" {
			ev.Props.SetText(ical.PropColor, e.Color)
		}

		if e.AllDay {
			d := date.DateOf(e.Start)
			setDateProp(ev, ical.PropDateTimeStart, d)
			setDateProp(ev, ical.PropDateTimeEnd, d.AddDays(1))
		} else {
			ev.Props.SetDateTime(ical.PropDateTimeStart, e.Start)
			ev.Props.SetDateTime(ical.PropDateTimeEnd, e.End)
		}

		cal.Children = append(cal.Children, ev.Component)
	}
	return cal
}

// DefinitionEvent renders a recurring task definition as a master VEVENT
// carrying the canonical RRULE, suitable for round-tripping the definition
// into other calendar software. One-off definitions render without RRULE.
func DefinitionEvent(def storage.TaskDefinition) (*ical.Event, error) {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, "task-"+def.ID)
	ev.Props.SetText(ical.PropSummary, def.Title)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if def.Category != "" {
		ev.Props.SetText(ical.PropCategories, def.Category)
	}

	if def.AllDay {
		setDateProp(ev, ical.PropDateTimeStart, def.Due)
		setDateProp(ev, ical.PropDateTimeEnd, def.Due.AddDays(1))
	} else {
		start := date.ClockOr(def.StartTime, date.Clock{Hour: 9})
		end := date.ClockOr(def.EndTime, start)
		ev.Props.SetDateTime(ical.PropDateTimeStart, def.Due.At(start))
		ev.Props.SetDateTime(ical.PropDateTimeEnd, def.Due.At(end))
	}

	if def.Recurring {
		rule, err := recurrence.ParseRule(def.Rule)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", def.ID, err)
		}
		value, err := RenderRule(rule)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", def.ID, err)
		}
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = value
		ev.Props.Set(prop)
	}
	return ev, nil
}

// Encode writes the calendar in wire format.
func Encode(cal *ical.Calendar, w io.Writer) error {
	return ical.NewEncoder(w).Encode(cal)
}

// RenderRule converts a parsed rule into the canonical RRULE property value
// emitted by rrule-go. The subset grammar maps cleanly: FREQ, INTERVAL and
// BYDAY carry over, nothing else exists.
func RenderRule(rule recurrence.Rule) (string, error) {
	opt := rrule.ROption{Interval: rule.Interval}

	switch rule.Freq {
	case recurrence.Daily:
		opt.Freq = rrule.DAILY
	case recurrence.Weekly:
		opt.Freq = rrule.WEEKLY
	case recurrence.Monthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("rule has no frequency: %v", rule)
	}

	for _, wd := range rule.ByDay {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(wd))
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("render rule: %w", err)
	}
	return r.String(), nil
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// setDateProp stores a property as an iCalendar DATE value.
func setDateProp(ev *ical.Event, name string, d date.Date) {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDate)
	p.Value = d.Time().Format(dateLayout)
	ev.Props.Set(p)
}
