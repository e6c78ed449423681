package chron

import (
	"math"
	"strconv"
	"strings"
)

// FieldKind identifies one of the six crontab schedule fields.
type FieldKind int

const (
	Second FieldKind = iota
	Minute
	Hour
	Day
	Month
	DayOfWeek
)

// fieldSpec holds the static properties of a field kind: its inclusive
// value range and an optional ordered table of symbolic value names.
type fieldSpec struct {
	name  string
	min   int
	max   int
	names []string
}

var (
	monthNames = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	dayOfWeekNames = []string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday",
		"Friday", "Saturday",
	}

	fieldSpecs = [...]fieldSpec{
		Second:    {"second", 0, 59, nil},
		Minute:    {"minute", 0, 59, nil},
		Hour:      {"hour", 0, 23, nil},
		Day:       {"day", 1, 31, nil},
		Month:     {"month", 1, 12, monthNames},
		DayOfWeek: {"day of week", 0, 6, dayOfWeekNames},
	}
)

// Min returns the smallest valid value for the field kind.
func (k FieldKind) Min() int { return fieldSpecs[k].min }

// Max returns the largest valid value for the field kind.
func (k FieldKind) Max() int { return fieldSpecs[k].max }

// String returns the display name of the field kind.
func (k FieldKind) String() string { return fieldSpecs[k].name }

func (k FieldKind) valid() bool {
	return k >= Second && k <= DayOfWeek
}

// valueOf resolves a symbolic value name using a case-insensitive prefix
// match against the kind's name table. An ambiguous or unmatched prefix
// is an error.
func (k FieldKind) valueOf(symbol string) (int, error) {
	names := fieldSpecs[k].names
	if names == nil {
		return 0, parseErrorf("unrecognized symbolic name %q in %s field",
			symbol, k)
	}
	prefix := strings.ToLower(symbol)
	match := -1
	for i, name := range names {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			if match >= 0 {
				return 0, parseErrorf(
					"unrecognized symbolic name %q in %s field: ambiguous prefix",
					symbol, k)
			}
			match = i
		}
	}
	if match < 0 {
		return 0, parseErrorf("unrecognized symbolic name %q in %s field",
			symbol, k)
	}
	return fieldSpecs[k].min + match, nil
}

// unsetMin and unsetMax are the tracked bound sentinels of a FieldSet
// with no accumulated values.
const (
	unsetMin = math.MaxInt
	unsetMax = -1
)

// FieldSet is the parsed, bitset-backed set of values permitted by one
// field of a schedule. It is immutable once built from an expression.
//
// The largest field range spans 60 values, so the set fits in a single
// word; bit i corresponds to the value Min()+i. The smallest and largest
// values ever set are tracked alongside the bits.
type FieldSet struct {
	kind   FieldKind
	bits   uint64
	minSet int
	maxSet int
}

func newFieldSet(kind FieldKind) *FieldSet {
	return &FieldSet{kind: kind, minSet: unsetMin, maxSet: unsetMax}
}

// accumulate sets every interval-th value in [start, end]. An openValue
// endpoint defaults to the field minimum (start) or maximum (end); both
// endpoints open denotes the entire range. A reversed range has its
// operands swapped, and an interval below one is coerced to one.
func (fs *FieldSet) accumulate(start, end, interval int) error {
	spec := fieldSpecs[fs.kind]
	if start == openValue {
		start = spec.min
	}
	if end == openValue {
		end = spec.max
	}
	if start > end {
		start, end = end, start
	}
	if interval < 1 {
		interval = 1
	}
	if start < spec.min {
		return parseErrorf("value %d below minimum %d in %s field",
			start, spec.min, fs.kind)
	}
	if end > spec.max {
		return parseErrorf("value %d above maximum %d in %s field",
			end, spec.max, fs.kind)
	}
	for v := start; v <= end; v += interval {
		fs.bits |= 1 << uint(v-spec.min)
	}
	// the last value actually touched by the stride, not necessarily end
	last := start + ((end-start)/interval)*interval
	if start < fs.minSet {
		fs.minSet = start
	}
	if last > fs.maxSet {
		fs.maxSet = last
	}
	return nil
}

// Kind returns the field kind of the set.
func (fs *FieldSet) Kind() FieldKind { return fs.kind }

// Contains reports whether the value is a member of the set.
func (fs *FieldSet) Contains(v int) bool {
	if v < fieldSpecs[fs.kind].min || v > fieldSpecs[fs.kind].max {
		return false
	}
	return fs.bits&(1<<uint(v-fieldSpecs[fs.kind].min)) != 0
}

// First returns the smallest value in the set, and false when the set
// is empty.
func (fs *FieldSet) First() (int, bool) {
	if fs.bits == 0 {
		return 0, false
	}
	return fs.minSet, true
}

// first returns the smallest value in the set. It must only be called
// on a non-empty set; parsed schedule fields are never empty.
func (fs *FieldSet) first() int {
	return fs.minSet
}

// Next returns the smallest value in the set that is greater than or
// equal to from, and false when no such value exists. A from below the
// tracked minimum short-circuits to it.
func (fs *FieldSet) Next(from int) (int, bool) {
	if fs.bits == 0 || from > fs.maxSet {
		return 0, false
	}
	if from <= fs.minSet {
		return fs.minSet, true
	}
	min := fieldSpecs[fs.kind].min
	for v := from; v <= fs.maxSet; v++ {
		if fs.bits&(1<<uint(v-min)) != 0 {
			return v, true
		}
	}
	return 0, false
}

// String formats the set so that re-parsing it for the same kind yields
// equal membership. The entire range renders as the wildcard; otherwise
// single values and contiguous runs are emitted, using symbolic names
// when the kind has a table.
func (fs *FieldSet) String() string {
	return fs.format(false)
}

func (fs *FieldSet) format(noNames bool) string {
	spec := fieldSpecs[fs.kind]
	if fs.bits == 0 {
		return ""
	}
	full := true
	for v := spec.min; v <= spec.max; v++ {
		if !fs.Contains(v) {
			full = false
			break
		}
	}
	if full {
		return "*"
	}

	var b strings.Builder
	for v := fs.minSet; v <= fs.maxSet; v++ {
		if !fs.Contains(v) {
			continue
		}
		runEnd := v
		for runEnd < fs.maxSet && fs.Contains(runEnd+1) {
			runEnd++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(fs.formatValue(v, noNames))
		if runEnd > v {
			b.WriteByte('-')
			b.WriteString(fs.formatValue(runEnd, noNames))
		}
		v = runEnd
	}
	return b.String()
}

func (fs *FieldSet) formatValue(v int, noNames bool) string {
	spec := fieldSpecs[fs.kind]
	if spec.names != nil && !noNames {
		return spec.names[v-spec.min]
	}
	return strconv.Itoa(v)
}
