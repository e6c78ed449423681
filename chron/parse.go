package chron

import (
	"strconv"
	"strings"
)

// openValue is the open range endpoint sentinel: an open start defaults
// to the field minimum, an open end to the field maximum.
const openValue = -1

// pre-defined schedule descriptors
var descriptors = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// ParseField parses a single crontab field expression for the given
// field kind. An empty expression yields a set with no values; a
// schedule never carries one, since wildcard accumulation guarantees
// membership in every slot.
func ParseField(kind FieldKind, expression string) (*FieldSet, error) {
	if !kind.valid() {
		return nil, illegalArgumentError("unknown field kind")
	}
	fs := newFieldSet(kind)
	if err := fs.parse(expression); err != nil {
		return nil, err
	}
	return fs, nil
}

// parse accumulates the comma-separated terms of the expression into
// the set, short-circuiting on the first term error.
func (fs *FieldSet) parse(expression string) error {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil
	}
	for _, term := range strings.Split(expression, ",") {
		if err := fs.parseTerm(strings.TrimSpace(term)); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FieldSet) parseTerm(term string) error {
	if term == "" {
		return parseErrorf("empty field term in %s field", fs.kind)
	}

	interval := 1
	stepped := false
	if i := strings.IndexByte(term, '/'); i >= 0 {
		n, err := strconv.Atoi(strings.TrimSpace(term[i+1:]))
		if err != nil {
			return parseErrorf("malformed expression %q in %s field",
				term, fs.kind)
		}
		if n < 1 {
			n = 1
		}
		interval = n
		stepped = true
		term = strings.TrimSpace(term[:i])
	}

	if term == "*" {
		return fs.accumulate(openValue, openValue, interval)
	}

	if i := strings.IndexByte(term, '-'); i >= 0 {
		startText := strings.TrimSpace(term[:i])
		endText := strings.TrimSpace(term[i+1:])
		if startText == "" || endText == "" || strings.ContainsRune(endText, '-') {
			return parseErrorf("malformed expression %q in %s field",
				term, fs.kind)
		}
		start, err := fs.parseValue(startText)
		if err != nil {
			return err
		}
		end, err := fs.parseValue(endText)
		if err != nil {
			return err
		}
		return fs.accumulate(start, end, interval)
	}

	v, err := fs.parseValue(term)
	if err != nil {
		return err
	}
	if stepped {
		// a bare stepped value strides to the field maximum
		return fs.accumulate(v, openValue, interval)
	}
	return fs.accumulate(v, v, 1)
}

// parseValue resolves a single field value, numeric or symbolic.
func (fs *FieldSet) parseValue(text string) (int, error) {
	if v, err := strconv.Atoi(text); err == nil {
		return v, nil
	}
	return fs.kind.valueOf(text)
}

// scheduleFieldKinds is the field order of a crontab expression; the
// leading seconds slot is present in six-field expressions only.
var scheduleFieldKinds = [...]FieldKind{
	Second, Minute, Hour, Day, Month, DayOfWeek,
}

// Parse parses a five-field crontab expression
// (minute hour day month day-of-week). Seconds are treated as a
// synthetic constant zero field. Descriptors (@yearly, @monthly,
// @weekly, @daily, @midnight, @hourly) are accepted.
func Parse(expression string) (*Schedule, error) {
	return parseSchedule(expression, false)
}

// ParseWithSeconds parses a six-field crontab expression with a leading
// seconds field (second minute hour day month day-of-week). Descriptors
// are accepted and expand to their five-field form.
func ParseWithSeconds(expression string) (*Schedule, error) {
	return parseSchedule(expression, true)
}

func parseSchedule(expression string, withSeconds bool) (*Schedule, error) {
	expr := strings.TrimSpace(expression)
	if strings.HasPrefix(expr, "@") {
		alias, ok := descriptors[strings.ToLower(expr)]
		if !ok {
			return nil, parseErrorf("unknown descriptor %q", expr)
		}
		expr = alias
		withSeconds = false
	}

	arity := 5
	if withSeconds {
		arity = 6
	}
	tokens := strings.Fields(expr)
	if len(tokens) == 0 {
		return nil, parseError("empty field: expression has no fields")
	}
	if len(tokens) != arity {
		return nil, parseErrorf("invalid expression length: expected %d fields, got %d",
			arity, len(tokens))
	}

	schedule := &Schedule{hasSeconds: withSeconds}
	kinds := scheduleFieldKinds[:]
	if !withSeconds {
		kinds = kinds[1:]
	}
	for i, kind := range kinds {
		fs, err := ParseField(kind, tokens[i])
		if err != nil {
			return nil, err
		}
		schedule.fields[kind] = fs
	}
	if !withSeconds {
		seconds := newFieldSet(Second)
		_ = seconds.accumulate(0, 0, 1)
		schedule.fields[Second] = seconds
	}
	return schedule, nil
}
