package validity

import (
	"reflect"
	"time"
)

// FieldAnalysis summarizes how a payload field varies across the records
// of an entity.
type FieldAnalysis struct {
	Field string
	Count int
	// Unset counts records without the field, Empty those holding a zero
	// value.
	Unset int
	Empty int
	// First is set once a non-empty value has been seen, Diff once two
	// distinct non-empty values have been seen.
	First bool
	Diff  bool
	// Value is the single non-empty value, or the value of the closest
	// record when they differ.
	Value any
	// Values holds the field of each record, in input order.
	Values []any
}

// Analyze compares field across records. It lets a caller show a single
// value when the field never changes, and the current one otherwise.
func (s *Set) Analyze(records RecordSet, field string, opts ...CallOption) FieldAnalysis {
	res := FieldAnalysis{Field: field, Values: make([]any, 0, len(records))}
	for _, r := range records {
		res.Count++
		v, ok := r[field]
		res.Values = append(res.Values, v)
		switch {
		case !ok:
			res.Unset++
		case isEmpty(v):
			res.Empty++
		case !res.First:
			res.Value = v
			res.First = true
		case !sameValue(v, res.Value):
			res.Diff = true
		}
	}
	if res.Diff {
		if closest, _ := s.Closest(records, opts...); closest != nil {
			res.Value = closest[field]
		}
	}
	return res
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return rv.IsZero()
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return CompareDays(ta, tb) == 0
		}
	}
	return reflect.DeepEqual(a, b)
}
