package chron

import (
	"strings"
	"time"
)

// maxYear bounds the occurrence search; a candidate beyond it degrades
// to the caller's end sentinel.
const maxYear = 9999

// EndOfTime is the unbounded search limit for NextOccurrence. A result
// equal to the end argument means no qualifying instant exists below it.
var EndOfTime = time.Date(maxYear, time.December, 31, 23, 59, 59, 0, time.UTC)

// Schedule is a parsed crontab schedule: one FieldSet per field kind.
// It is immutable once parsed and owns the next-occurrence computation.
type Schedule struct {
	fields     [6]*FieldSet
	hasSeconds bool
}

// Field returns the value set of the given field kind. Five-field
// schedules report a constant zero seconds set.
func (s *Schedule) Field(kind FieldKind) *FieldSet {
	if !kind.valid() {
		return nil
	}
	return s.fields[kind]
}

// String renders the schedule in its crontab field order, with the
// seconds field included only when the schedule was parsed with one.
func (s *Schedule) String() string {
	kinds := scheduleFieldKinds[:]
	if !s.hasSeconds {
		kinds = kinds[1:]
	}
	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = s.fields[kind].format(true)
	}
	return strings.Join(parts, " ")
}

// NextOccurrence returns the next instant strictly after base at which
// the schedule fires, computed in the location of base. The end bound
// is exclusive: when no qualifying instant exists before it, end itself
// is returned as the "none" sentinel. The computation never errors;
// unreachable dates and calendar overflow degrade to the sentinel.
func (s *Schedule) NextOccurrence(base, end time.Time) time.Time {
	loc := base.Location()

	// the smallest whole second strictly after base
	start := base.Add(time.Second - time.Duration(base.Nanosecond()))
	year, month, day := start.Date()
	mon := int(month)
	hour, minute, sec := start.Clock()

	for {
		if year > maxYear {
			return end
		}

		// carry-ripple from the least significant field upward: a field
		// advanced past its base value resets every lower-order field to
		// its first value; an exhausted field rolls over and carries one
		// into the next field up.
		if v, ok := s.fields[Second].Next(sec); ok {
			if v > sec {
				sec = v
			}
		} else {
			sec = s.fields[Second].first()
			minute++
		}
		if v, ok := s.fields[Minute].Next(minute); ok {
			if v > minute {
				minute = v
				sec = s.fields[Second].first()
			}
		} else {
			minute, sec = s.fields[Minute].first(), s.fields[Second].first()
			hour++
		}
		if v, ok := s.fields[Hour].Next(hour); ok {
			if v > hour {
				hour = v
				minute, sec = s.fields[Minute].first(), s.fields[Second].first()
			}
		} else {
			hour = s.fields[Hour].first()
			minute, sec = s.fields[Minute].first(), s.fields[Second].first()
			day++
		}

		// day and month carries, re-run until the day fits the real
		// length of the landing month; terminates by month advance or
		// the year bound
		for {
			if v, ok := s.fields[Day].Next(day); ok {
				if v > day {
					day = v
					hour, minute, sec = s.firstClock()
				}
			} else {
				day = s.fields[Day].first()
				hour, minute, sec = s.firstClock()
				mon++
			}
			if v, ok := s.fields[Month].Next(mon); ok {
				if v > mon {
					mon = v
					day = s.fields[Day].first()
					hour, minute, sec = s.firstClock()
				}
			} else {
				mon = s.fields[Month].first()
				day = s.fields[Day].first()
				hour, minute, sec = s.firstClock()
				year++
				if year > maxYear {
					return end
				}
			}
			if day <= daysIn(year, mon) {
				break
			}
			// force a day carry into a month long enough to hold it
			day = fieldSpecs[Day].max + 1
		}

		candidate := time.Date(year, time.Month(mon), day, hour, minute, sec, 0, loc)

		// a nonexistent local time (DST gap) is renormalized by
		// time.Date, to either side of the gap; a candidate not strictly
		// after base is the earlier side of a DST fold. Both nudge the
		// requested wall clock forward, so the tuple always advances and
		// the search cannot revisit the same candidate.
		cy, cm, cd := candidate.Date()
		ch, cmin, csec := candidate.Clock()
		renormalized := cy != year || int(cm) != mon || cd != day ||
			ch != hour || cmin != minute || csec != sec
		if renormalized || !candidate.After(base) {
			minute++
			sec = s.fields[Second].first()
			continue
		}

		if !s.fields[DayOfWeek].Contains(int(candidate.Weekday())) {
			// retry from the end of the rejected day rather than by
			// naive increments; the next candidate starts at midnight
			// of the following day
			next := time.Date(year, time.Month(mon), day, 23, 59, 59, 0, loc).
				Add(time.Second)
			year, month, day = next.Date()
			mon = int(month)
			hour, minute, sec = next.Clock()
			continue
		}

		if !candidate.Before(end) {
			return end
		}
		return candidate
	}
}

func (s *Schedule) firstClock() (hour, minute, sec int) {
	return s.fields[Hour].first(), s.fields[Minute].first(), s.fields[Second].first()
}

// daysIn returns the number of days in the given month.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OccurrenceIterator lazily yields the successive occurrences of a
// schedule, feeding each found instant back as the next base until the
// end bound is reached.
type OccurrenceIterator struct {
	schedule *Schedule
	current  time.Time
	end      time.Time
}

// Occurrences returns an iterator over the occurrences of the schedule
// strictly after base and before end.
func (s *Schedule) Occurrences(base, end time.Time) *OccurrenceIterator {
	return &OccurrenceIterator{schedule: s, current: base, end: end}
}

// Next returns the next occurrence, and false when the iterator has
// reached the end bound.
func (it *OccurrenceIterator) Next() (time.Time, bool) {
	next := it.schedule.NextOccurrence(it.current, it.end)
	if !next.Before(it.end) {
		return time.Time{}, false
	}
	it.current = next
	return next, true
}

// NextN returns up to n occurrences of the schedule strictly after base
// and before end.
func (s *Schedule) NextN(base, end time.Time, n int) []time.Time {
	occurrences := make([]time.Time, 0, n)
	it := s.Occurrences(base, end)
	for len(occurrences) < n {
		next, ok := it.Next()
		if !ok {
			break
		}
		occurrences = append(occurrences, next)
	}
	return occurrences
}
