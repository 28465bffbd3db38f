// Package recurrence expands recurring-definition rules into concrete
// occurrence dates for a requested window.
//
// Rules use a compact subset of the iCalendar RRULE grammar:
//
//	FREQ=<DAILY|WEEKLY|MONTHLY>[;INTERVAL=<n>][;BYDAY=<SU,MO,TU,WE,TH,FR,SA>]
//
// Parsing is deliberately lenient: stored rules written by several client
// generations must keep expanding, so unknown tokens, malformed INTERVAL
// values and unrecognized BYDAY codes are dropped silently. The only fatal
// condition is a missing FREQ, which makes the rule invalid.
package recurrence

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoFrequency is returned for rule strings without a usable FREQ token.
// Definitions carrying such a rule expand to zero occurrences.
var ErrNoFrequency = errors.New("recurrence rule has no frequency")

// Frequency is the base period of a rule. The zero value is invalid.
type Frequency int

const (
	freqInvalid Frequency = iota
	Daily
	Weekly
	Monthly
)

// String returns the grammar token for the frequency.
func (f Frequency) String() string {
	switch f {
	case Daily:
		return "DAILY"
	case Weekly:
		return "WEEKLY"
	case Monthly:
		return "MONTHLY"
	default:
		return "INVALID"
	}
}

// byDayCodes maps the two-letter grammar codes to weekdays. Codes outside
// this table are dropped during parsing.
var byDayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var weekdayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Rule is a parsed recurrence rule.
type Rule struct {
	Freq     Frequency
	Interval int            // always >= 1 after parsing
	ByDay    []time.Weekday // sorted, duplicate-free; weekly rules only
}

// ParseRule parses a rule string. See the package comment for the grammar
// and the leniency contract.
func ParseRule(s string) (Rule, error) {
	rule := Rule{Interval: 1}

	for _, token := range strings.Split(s, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(token), "=")
		if !found {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			switch strings.ToUpper(strings.TrimSpace(value)) {
			case "DAILY":
				rule.Freq = Daily
			case "WEEKLY":
				rule.Freq = Weekly
			case "MONTHLY":
				rule.Freq = Monthly
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
				rule.Interval = n
			}
		case "BYDAY":
			rule.ByDay = parseByDay(value)
		}
	}

	if rule.Freq == freqInvalid {
		return Rule{}, ErrNoFrequency
	}
	return rule, nil
}

func parseByDay(value string) []time.Weekday {
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, code := range strings.Split(value, ",") {
		wd, ok := byDayCodes[strings.ToUpper(strings.TrimSpace(code))]
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		days = append(days, wd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// String renders the rule back into the grammar's canonical form. INTERVAL
// is omitted when 1, matching the most common stored form.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(r.Freq.String())
	if r.Interval > 1 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(r.Interval))
	}
	if len(r.ByDay) > 0 {
		b.WriteString(";BYDAY=")
		for i, wd := range r.ByDay {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(weekdayCodes[wd])
		}
	}
	return b.String()
}
