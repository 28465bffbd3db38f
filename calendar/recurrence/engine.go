package recurrence

import (
	"sort"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
)

// Engine expands rules into occurrence dates. A zero-configured engine (see
// NewEngine) is stateless and safe for concurrent use; enabling the cache
// adds pure memoization of expansion results and stays concurrency-safe.
type Engine struct {
	cache  *ExpansionCache
	config EngineConfig
}

// NewEngine creates an engine with DefaultEngineConfig.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithConfig creates an engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultEngineConfig.MaxIterations
	}
	var cache *ExpansionCache
	if config.CacheEnabled {
		cache = NewExpansionCache(config.CacheConfig)
	}
	return &Engine{cache: cache, config: config}
}

// Close releases the cache cleanup goroutine, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// periodUnit is the stride of one rule period.
type periodUnit int

const (
	unitDays   periodUnit = iota // daily rules
	unitWeeks                    // weekly rules
	unitMonths                   // monthly rules
)

// add advances d by n periods.
func (u periodUnit) add(d date.Date, n int) date.Date {
	switch u {
	case unitWeeks:
		return d.AddDays(7 * n)
	case unitMonths:
		return d.AddMonths(n)
	default:
		return d.AddDays(n)
	}
}

// between returns the number of whole periods from a to b (b >= a).
func (u periodUnit) between(a, b date.Date) int {
	switch u {
	case unitWeeks:
		return a.DaysUntil(b) / 7
	case unitMonths:
		return a.MonthsUntil(b)
	default:
		return a.DaysUntil(b)
	}
}

// Expand returns the ordered, duplicate-free occurrence dates of rule inside
// window. Every returned date satisfies anchor <= d and
// window.Start <= d <= window.End.
//
// Expansion fast-forwards over whole interval periods between an old anchor
// and the window start, then enumerates period by period until the cursor
// leaves the window or MaxIterations periods have been visited. The
// iteration bound is a structural guard against unsatisfiable rules; hitting
// it truncates the result rather than failing.
func (e *Engine) Expand(rule Rule, anchor date.Date, window date.Range) []date.Date {
	if !window.IsValid() || anchor.IsZero() || anchor.After(window.End) {
		return nil
	}
	if rule.Interval < 1 {
		rule.Interval = 1
	}

	if e.cache != nil {
		if dates, ok := e.cache.Get(rule, anchor, window); ok {
			return dates
		}
	}

	var dates []date.Date
	switch rule.Freq {
	case Daily:
		dates = e.expandByPeriod(anchor, window, rule.Interval, unitDays)
	case Weekly:
		if len(rule.ByDay) > 0 {
			dates = e.expandWeeklyByDay(rule, anchor, window)
		} else {
			dates = e.expandByPeriod(anchor, window, rule.Interval, unitWeeks)
		}
	case Monthly:
		// Monthly ignores BYDAY: one occurrence per interval-th month on
		// the anchor's day of month.
		dates = e.expandByPeriod(anchor, window, rule.Interval, unitMonths)
	default:
		return nil
	}

	if e.cache != nil {
		e.cache.Put(rule, anchor, window, dates)
	}
	return dates
}

// expandByPeriod handles the uniform frequencies, where a rule yields one
// candidate per period. Candidates are always computed from the anchor so
// month normalization cannot accumulate across periods.
func (e *Engine) expandByPeriod(anchor date.Date, window date.Range, interval int, unit periodUnit) []date.Date {
	period := fastForwardPeriods(anchor, window.Start, interval, unit)

	var dates []date.Date
	for iter := 0; iter < e.config.MaxIterations; iter++ {
		d := unit.add(anchor, period*interval)
		if d.After(window.End) {
			break
		}
		if window.Contains(d) {
			dates = append(dates, d)
		}
		period++
	}
	return dates
}

// expandWeeklyByDay fans each interval-th week out into one candidate per
// requested weekday. Weeks run Sunday through Saturday, matching the
// grammar's SU=0 indexing.
func (e *Engine) expandWeeklyByDay(rule Rule, anchor date.Date, window date.Range) []date.Date {
	period := fastForwardPeriods(anchor, window.Start, rule.Interval, unitWeeks)

	seen := make(map[date.Date]bool)
	var dates []date.Date
	for iter := 0; iter < e.config.MaxIterations; iter++ {
		weekAnchor := anchor.AddDays(period * rule.Interval * 7)
		weekStart := weekAnchor.AddDays(-int(weekAnchor.Weekday()))
		if weekStart.After(window.End) {
			break
		}
		for _, wd := range rule.ByDay {
			d := weekStart.AddDays(int(wd))
			if d.Before(anchor) || !window.Contains(d) || seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
		period++
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// fastForwardPeriods returns the number of whole interval-sized periods to
// skip before enumeration begins. Without this, expanding a definition
// anchored years in the past against a current-month window would burn the
// whole iteration budget walking dead periods.
func fastForwardPeriods(anchor, windowStart date.Date, interval int, unit periodUnit) int {
	if !anchor.Before(windowStart) {
		return 0
	}
	periods := unit.between(anchor, windowStart) / interval
	if periods < 0 {
		return 0
	}
	// Month normalization can push the jumped-to occurrence past the window
	// start (day-31 anchors); step back one period rather than skip it.
	if periods > 0 && unit.add(anchor, periods*interval).After(windowStart) {
		periods--
	}
	return periods
}
