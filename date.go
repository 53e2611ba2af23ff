package validity

import (
	"strings"
	"time"
)

var (
	// BeginningOfTime stands for an unbounded start.
	BeginningOfTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	// EndOfTime stands for an unbounded end.
	EndOfTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

var layouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	time.RFC3339Nano,
}

// Bound tells which side of a period a date sits on. It decides which
// infinity replaces a missing value.
type Bound int

const (
	Start Bound = iota
	End
)

func (b Bound) String() string {
	if b == End {
		return "end"
	}
	return "start"
}

// Infinity returns the sentinel used for an unbounded value on this side.
func (b Bound) Infinity() time.Time {
	if b == End {
		return EndOfTime
	}
	return BeginningOfTime
}

// Sanitize converts a date-like value to the UTC midnight of its calendar
// day. It reports false for nil, zero and unparsable values.
func Sanitize(v any) (time.Time, bool) {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		t = *d
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		var err error
		for _, layout := range layouts {
			if t, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return day(t), true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsValid reports whether v is a usable date.
func IsValid(v any) bool {
	_, ok := Sanitize(v)
	return ok
}

// Resolve returns the sanitized value, or the bound's infinity when v is
// missing or unparsable.
func Resolve(v any, b Bound) time.Time {
	if t, ok := Sanitize(v); ok {
		return t
	}
	return b.Infinity()
}

// Compare orders two date-like values at day resolution. Missing values
// are replaced by the infinity of the given bound before comparing.
func Compare(a, b any, bound Bound) int {
	return CompareDays(Resolve(a, bound), Resolve(b, bound))
}

func CompareAsStart(a, b any) int { return Compare(a, b, Start) }

func CompareAsEnd(a, b any) int { return Compare(a, b, End) }

// CompareDays compares two resolved dates, ignoring anything below a day.
func CompareDays(a, b time.Time) int {
	da, db := day(a), day(b)
	switch {
	case da.Before(db):
		return -1
	case da.After(db):
		return +1
	}
	return 0
}

// IsInfinite reports whether t is one of the two sentinels.
func IsInfinite(t time.Time) bool {
	d := day(t)
	return d.Equal(BeginningOfTime) || d.Equal(EndOfTime)
}

// AddDays shifts v by n whole days. Missing values stay missing.
func AddDays(v any, n int) (time.Time, bool) {
	t, ok := Sanitize(v)
	if !ok {
		return time.Time{}, false
	}
	return t.AddDate(0, 0, n), true
}

// CanonicalString formats t as YYYY-MM-DD, or "" when t is unbounded.
func CanonicalString(t time.Time) string {
	if IsInfinite(t) {
		return ""
	}
	return day(t).Format(time.DateOnly)
}

// finite turns a sentinel back into the zero value.
func finite(t time.Time) time.Time {
	if IsInfinite(t) {
		return time.Time{}
	}
	return t
}
