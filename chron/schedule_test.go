package chron_test

import (
	"testing"
	"time"

	"github.com/gorhill/cronexpr"
	robfig "github.com/robfig/cron/v3"

	"github.com/reugn/go-chron/chron"
	"github.com/reugn/go-chron/internal/assert"
)

func TestScheduleNextOccurrenceMonthLengths(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 15,31 * *")
	assert.IsNil(t, err)

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := []time.Time{
		time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 4, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 5, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	// months without a 31st skip that alternative while the 15th fires
	assert.Equal(t, schedule.NextN(base, chron.EndOfTime, len(expected)), expected)
}

func TestScheduleQuarterHour(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("*/15 * * * *")
	assert.IsNil(t, err)

	// a base exactly on a boundary is never re-returned for itself
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 1, 1, 12, 15, 0, 0, time.UTC))

	occurrences := schedule.NextN(base, chron.EndOfTime, 8)
	assert.Equal(t, len(occurrences), 8)
	prev := base
	for _, occurrence := range occurrences {
		assert.True(t, occurrence.After(prev))
		assert.Equal(t, occurrence.Minute()%15, 0)
		assert.Equal(t, occurrence.Second(), 0)
		prev = occurrence
	}
}

func TestScheduleNextOccurrenceStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	expressions := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 0 * * *",
		"30 4 1,15 * *",
		"0 0 * * 1",
		"0 0 31 * *",
	}
	for _, e := range expressions {
		expression := e
		t.Run(expression, func(t *testing.T) {
			t.Parallel()
			schedule, err := chron.Parse(expression)
			assert.IsNil(t, err)

			prev := time.Date(2024, 2, 27, 23, 58, 30, 0, time.UTC)
			for i := 0; i < 50; i++ {
				next := schedule.NextOccurrence(prev, chron.EndOfTime)
				assert.True(t, next.After(prev))
				prev = next
			}
		})
	}
}

func TestScheduleNextOccurrenceWithSeconds(t *testing.T) {
	t.Parallel()
	schedule, err := chron.ParseWithSeconds("*/20 * * * * *")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	expected := []time.Time{
		time.Date(2024, 1, 1, 12, 0, 20, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 0, 40, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 1, 20, 0, time.UTC),
	}
	assert.Equal(t, schedule.NextN(base, chron.EndOfTime, len(expected)), expected)
}

func TestScheduleSubSecondBase(t *testing.T) {
	t.Parallel()
	schedule, err := chron.ParseWithSeconds("* * * * * *")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 500_000_000, time.UTC)
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 1, 1, 12, 0, 1, 0, time.UTC))
}

func TestScheduleDayOfWeek(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 * * 1")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC) // Wednesday
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) // Monday
	assert.Equal(t, next.Weekday(), time.Monday)
}

func TestScheduleDayOfWeekWithDayOfMonth(t *testing.T) {
	t.Parallel()
	// both day fields restricted: the candidate day must satisfy both
	schedule, err := chron.Parse("0 0 13 * 5")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 9, 13, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, next.Weekday(), time.Friday)
}

func TestScheduleEndSentinel(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// the next yearly occurrence lies beyond the bound
	schedule, err := chron.Parse("@yearly")
	assert.IsNil(t, err)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, schedule.NextOccurrence(base, end), end)

	// an occurrence exactly at the bound: end is exclusive
	end = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, schedule.NextOccurrence(base, end), end)

	// one second later the occurrence fits below the bound
	end = time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, schedule.NextOccurrence(base, end),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestScheduleUnreachableDate(t *testing.T) {
	t.Parallel()
	for _, e := range []string{"0 0 30 2 *", "0 0 31 4 *"} {
		expression := e
		t.Run(expression, func(t *testing.T) {
			t.Parallel()
			schedule, err := chron.Parse(expression)
			assert.IsNil(t, err)
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			assert.Equal(t, schedule.NextOccurrence(base, chron.EndOfTime),
				chron.EndOfTime)
		})
	}
}

func TestScheduleYearOverflow(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 1 1 *")
	assert.IsNil(t, err)

	base := time.Date(9999, 12, 31, 23, 59, 58, 0, time.UTC)
	assert.Equal(t, schedule.NextOccurrence(base, chron.EndOfTime), chron.EndOfTime)
}

func TestScheduleLeapDay(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 29 2 *")
	assert.IsNil(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	expected := []time.Time{
		time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2032, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, schedule.NextN(base, chron.EndOfTime, 2), expected)
}

func TestScheduleDSTSpringForward(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/New_York")
	assert.IsNil(t, err)

	// 02:30 does not exist on 2024-03-10; the occurrence lands on the
	// next day the wall time is real
	schedule, err := chron.Parse("30 2 * * *")
	assert.IsNil(t, err)

	base := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 3, 11, 2, 30, 0, 0, loc))

	// an hourly schedule steps over the entire missing hour
	hourly, err := chron.Parse("0 * * * *")
	assert.IsNil(t, err)

	base = time.Date(2024, 3, 10, 1, 30, 0, 0, loc)
	next = hourly.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 3, 10, 3, 0, 0, 0, loc))
	// the skipped hour does not elapse in absolute time
	assert.Equal(t, next.Sub(base), 30*time.Minute)
}

func TestScheduleLocationPreserved(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/New_York")
	assert.IsNil(t, err)

	schedule, err := chron.Parse("0 12 * * *")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 1, 13, 0, 0, 0, loc)
	next := schedule.NextOccurrence(base, chron.EndOfTime)
	assert.Equal(t, next, time.Date(2024, 1, 2, 12, 0, 0, 0, loc))
	assert.Equal(t, next.Location(), loc)
}

func TestScheduleOccurrencesIterator(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 1 * *")
	assert.IsNil(t, err)

	base := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	count := 0
	it := schedule.Occurrences(base, end)
	for {
		occurrence, ok := it.Next()
		if !ok {
			break
		}
		assert.Equal(t, occurrence.Day(), 1)
		count++
	}
	assert.Equal(t, count, 12)

	// the iterator is restartable
	restarted := schedule.Occurrences(base, end)
	first, ok := restarted.Next()
	assert.True(t, ok)
	assert.Equal(t, first, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestScheduleNextNBounded(t *testing.T) {
	t.Parallel()
	schedule, err := chron.Parse("0 0 1 * *")
	assert.IsNil(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 1, 0, time.UTC)
	occurrences := schedule.NextN(base, end, 100)
	assert.Equal(t, len(occurrences), 3) // Feb, Mar, Apr
}

// The cronexpr and robfig/cron libraries serve as reference
// implementations for the expression dialect all three share: five
// fields with at most one of the day fields restricted.
func TestScheduleAgainstReferenceImplementations(t *testing.T) {
	t.Parallel()
	expressions := []string{
		"* * * * *",
		"*/15 * * * *",
		"0 */2 * * *",
		"30 4 1,15 * *",
		"0 12 * * 1-5",
		"5 0 * 8 *",
		"23 0-20/2 * * *",
		"0 22 * * 1-5",
		"0 0 1 */3 *",
		"15,45 9-17 * * *",
	}
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, e := range expressions {
		expression := e
		t.Run(expression, func(t *testing.T) {
			t.Parallel()
			schedule, err := chron.Parse(expression)
			assert.IsNil(t, err)
			reference := cronexpr.MustParse(expression)
			standard, err := robfig.ParseStandard(expression)
			assert.IsNil(t, err)

			ours, theirs, std := base, base, base
			for i := 0; i < 30; i++ {
				ours = schedule.NextOccurrence(ours, chron.EndOfTime)
				theirs = reference.Next(theirs)
				std = standard.Next(std)
				assert.True(t, ours.Equal(theirs))
				assert.True(t, ours.Equal(std))
			}
		})
	}
}

func TestScheduleWithSecondsAgainstReference(t *testing.T) {
	t.Parallel()
	parser := robfig.NewParser(robfig.Second | robfig.Minute | robfig.Hour |
		robfig.Dom | robfig.Month | robfig.Dow)
	expressions := []string{
		"*/20 * * * * *",
		"30 */10 * * * *",
		"0 0 6,18 * * *",
		"45 30 12 1 * *",
	}
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, e := range expressions {
		expression := e
		t.Run(expression, func(t *testing.T) {
			t.Parallel()
			schedule, err := chron.ParseWithSeconds(expression)
			assert.IsNil(t, err)
			standard, err := parser.Parse(expression)
			assert.IsNil(t, err)
			// cronexpr reads a leading seconds field only in its
			// seven-field form; append the wildcard year
			reference := cronexpr.MustParse(expression + " *")

			ours, std, theirs := base, base, base
			for i := 0; i < 30; i++ {
				ours = schedule.NextOccurrence(ours, chron.EndOfTime)
				std = standard.Next(std)
				theirs = reference.Next(theirs)
				assert.True(t, ours.Equal(std))
				assert.True(t, ours.Equal(theirs))
			}
		})
	}
}
