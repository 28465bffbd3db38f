package instance

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
)

func d(t *testing.T, s string) date.Date {
	t.Helper()
	parsed, err := date.ParseDate(s)
	require.NoError(t, err)
	return parsed
}

func timedDefaults() Defaults {
	return Defaults{
		Start: date.Clock{Hour: 9},
		End:   date.Clock{Hour: 10},
	}
}

func TestResolve_NoExceptions(t *testing.T) {
	dates := []date.Date{d(t, "2024-06-03"), d(t, "2024-06-04")}

	resolved := Resolve("def-1", dates, timedDefaults(), Tables{})
	require.Len(t, resolved, 2)
	for i, r := range resolved {
		assert.Equal(t, dates[i], r.Date)
		assert.Equal(t, StatusPending, r.Status)
		assert.False(t, r.HasOverride)
		assert.Equal(t, dates[i].At(date.Clock{Hour: 9}), r.Start)
		assert.Equal(t, dates[i].At(date.Clock{Hour: 10}), r.End)
	}
}

func TestResolve_SkipRemovesExactlyOne(t *testing.T) {
	dates := []date.Date{d(t, "2024-06-03"), d(t, "2024-06-04"), d(t, "2024-06-05")}
	tables := Tables{
		Skipped: map[Key]struct{}{
			{DefinitionID: "def-1", Date: d(t, "2024-06-04")}: {},
		},
	}

	resolved := Resolve("def-1", dates, timedDefaults(), tables)
	require.Len(t, resolved, 2)
	assert.Equal(t, d(t, "2024-06-03"), resolved[0].Date)
	assert.Equal(t, d(t, "2024-06-05"), resolved[1].Date)

	// Another definition's occurrence on the skipped date is unaffected.
	other := Resolve("def-2", []date.Date{d(t, "2024-06-04")}, timedDefaults(), tables)
	require.Len(t, other, 1)
}

func TestResolve_CompletionSetsStatus(t *testing.T) {
	dates := []date.Date{d(t, "2024-06-03"), d(t, "2024-06-04")}
	tables := Tables{
		Completed: map[Key]struct{}{
			{DefinitionID: "def-1", Date: d(t, "2024-06-03")}: {},
		},
	}

	resolved := Resolve("def-1", dates, timedDefaults(), tables)
	require.Len(t, resolved, 2)
	assert.Equal(t, StatusCompleted, resolved[0].Status)
	assert.Equal(t, StatusPending, resolved[1].Status)
}

func TestResolve_SkipWinsOverCompletion(t *testing.T) {
	key := Key{DefinitionID: "def-1", Date: d(t, "2024-06-04")}
	tables := Tables{
		Skipped:   map[Key]struct{}{key: {}},
		Completed: map[Key]struct{}{key: {}},
	}

	resolved := Resolve("def-1", []date.Date{key.Date}, timedDefaults(), tables)
	assert.Empty(t, resolved)
}

func TestResolve_OverrideIsInstanceLocal(t *testing.T) {
	dates := []date.Date{d(t, "2024-06-03"), d(t, "2024-06-04"), d(t, "2024-06-05")}
	tables := Tables{
		Overrides: map[Key]TimeOverride{
			{DefinitionID: "def-1", Date: d(t, "2024-06-04")}: {
				Start: mo.Some(date.Clock{Hour: 14}),
				End:   mo.Some(date.Clock{Hour: 15, Minute: 30}),
			},
		},
	}

	resolved := Resolve("def-1", dates, timedDefaults(), tables)
	require.Len(t, resolved, 3)

	assert.Equal(t, dates[0].At(date.Clock{Hour: 9}), resolved[0].Start)
	assert.False(t, resolved[0].HasOverride)

	assert.Equal(t, dates[1].At(date.Clock{Hour: 14}), resolved[1].Start)
	assert.Equal(t, dates[1].At(date.Clock{Hour: 15, Minute: 30}), resolved[1].End)
	assert.True(t, resolved[1].HasOverride)

	assert.Equal(t, dates[2].At(date.Clock{Hour: 9}), resolved[2].Start)
	assert.False(t, resolved[2].HasOverride)
}

func TestResolve_PartialOverrideKeepsOtherSide(t *testing.T) {
	day := d(t, "2024-06-04")
	tables := Tables{
		Overrides: map[Key]TimeOverride{
			{DefinitionID: "def-1", Date: day}: {Start: mo.Some(date.Clock{Hour: 19})},
		},
	}

	resolved := Resolve("def-1", []date.Date{day}, timedDefaults(), tables)
	require.Len(t, resolved, 1)
	assert.Equal(t, day.At(date.Clock{Hour: 19}), resolved[0].Start)
	// End clock 10:00 is before the overridden start; it collapses to the
	// start instead of producing an inverted event.
	assert.Equal(t, resolved[0].Start, resolved[0].End)
}

// Resolve is stateless: dropping an override record restores the definition
// default on the next call.
func TestResolve_DeletedOverrideRestoresDefault(t *testing.T) {
	day := d(t, "2024-06-04")
	key := Key{DefinitionID: "def-1", Date: day}
	tables := Tables{
		Overrides: map[Key]TimeOverride{
			key: {Start: mo.Some(date.Clock{Hour: 14})},
		},
	}

	withOverride := Resolve("def-1", []date.Date{day}, timedDefaults(), tables)
	require.True(t, withOverride[0].HasOverride)

	delete(tables.Overrides, key)
	without := Resolve("def-1", []date.Date{day}, timedDefaults(), tables)
	require.Len(t, without, 1)
	assert.False(t, without[0].HasOverride)
	assert.Equal(t, day.At(date.Clock{Hour: 9}), without[0].Start)
}

func TestEffectiveTimes_AllDay(t *testing.T) {
	day := d(t, "2024-06-04")
	defaults := Defaults{AllDay: true}
	override := TimeOverride{Start: mo.Some(date.Clock{Hour: 14})}

	start, end := EffectiveTimes(day, defaults, override, true)
	assert.Equal(t, day.Time(), start)
	assert.Equal(t, day.Time(), end)
}

func TestEffectiveTimes_SingleClockDefinition(t *testing.T) {
	// Definitions with one due time have Start == End defaults.
	day := d(t, "2024-06-04")
	defaults := Defaults{Start: date.Clock{Hour: 9}, End: date.Clock{Hour: 9}}

	start, end := EffectiveTimes(day, defaults, TimeOverride{}, false)
	assert.Equal(t, day.At(date.Clock{Hour: 9}), start)
	assert.Equal(t, start, end)
}

func TestTables_NilMapsAreSafe(t *testing.T) {
	var tables Tables
	key := Key{DefinitionID: "def-1", Date: d(t, "2024-06-04")}

	assert.False(t, tables.IsSkipped(key))
	assert.False(t, tables.IsCompleted(key))
	_, ok := tables.Override(key)
	assert.False(t, ok)
}

func TestTables_Merge(t *testing.T) {
	k1 := Key{DefinitionID: "a", Date: d(t, "2024-06-01")}
	k2 := Key{DefinitionID: "b", Date: d(t, "2024-06-02")}

	a := Tables{
		Skipped:   map[Key]struct{}{k1: {}},
		Overrides: map[Key]TimeOverride{k1: {Start: mo.Some(date.Clock{Hour: 8})}},
	}
	b := Tables{
		Completed: map[Key]struct{}{k2: {}},
		Overrides: map[Key]TimeOverride{k2: {End: mo.Some(date.Clock{Hour: 17})}},
	}

	merged := a.Merge(b)
	assert.True(t, merged.IsSkipped(k1))
	assert.True(t, merged.IsCompleted(k2))
	_, ok := merged.Override(k1)
	assert.True(t, ok)
	_, ok = merged.Override(k2)
	assert.True(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "completed", StatusCompleted.String())
}

func TestKeyIsComparable(t *testing.T) {
	// Composite keys must distinguish IDs that would collide when naively
	// concatenated with the date.
	m := map[Key]struct{}{}
	day := date.Date{Year: 2024, Month: time.June, Day: 4}
	m[Key{DefinitionID: "a-2024", Date: day}] = struct{}{}
	m[Key{DefinitionID: "a", Date: day}] = struct{}{}
	assert.Len(t, m, 2)
}
