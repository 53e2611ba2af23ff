package validity

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

var ErrIndexOutOfRange = errors.New("record index out of range")

// NewRecord materializes a record over period, usually a hole reported by
// Holes. The payload is deep-copied from a neighbour: the record starting
// just before period, or the first record when period has no start or
// precedes everything. A bounded period before every record thus takes its
// payload from the earliest record, not the latest. It returns a new
// sorted RecordSet and the position of the inserted record, or the
// untouched records and -1 when no reference record exists.
func (s *Set) NewRecord(records RecordSet, period Period, opts ...CallOption) (RecordSet, int) {
	f := s.call(opts).fields
	if len(records) == 0 {
		s.logger.Warn("unable to find a reference record", "period", period.String())
		return records, -1
	}
	sorted := sortedView(records, f)

	start, hasStart := Sanitize(period.Start)
	found := 0
	if hasStart {
		found = len(sorted) - 1
		for i, r := range sorted {
			if CompareAsStart(start, r[f.Start]) < 0 {
				found = max(i-1, 0)
				break
			}
		}
	}

	record := s.clonePayload(sorted[found])
	record[f.Start] = boundValue(period.Start)
	record[f.End] = boundValue(period.End)

	index := len(sorted)
	for i, r := range sorted {
		if CompareAsStart(r[f.Start], record[f.Start]) > 0 {
			index = i
			break
		}
	}
	return slices.Insert(sorted, index, record), index
}

func boundValue(t any) any {
	if d, ok := Sanitize(t); ok && !IsInfinite(d) {
		return d
	}
	return nil
}

func (s *Set) clonePayload(r Record) Record {
	out := make(Record, len(r))
	if len(s.copy) > 0 {
		for _, k := range s.copy {
			if v, ok := r[k]; ok {
				out[k] = deepCopy(v)
			}
		}
		return out
	}
	for k, v := range r {
		if slices.Contains(s.omit, k) {
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	if v == nil {
		return nil
	}
	return deepCopyValue(reflect.ValueOf(v)).Interface()
}

func deepCopyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), deepCopyValue(iter.Value()))
		}
		return m
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return c
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		w := reflect.New(v.Type()).Elem()
		w.Set(deepCopyValue(v.Elem()))
		return w
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(deepCopyValue(v.Elem()))
		return p
	}
	return v
}

// MergeLeft removes the record before index. The record at index keeps its
// payload and extends its start to the removed record's start.
func (s *Set) MergeLeft(records RecordSet, index int, opts ...CallOption) (RecordSet, error) {
	if index <= 0 || index >= len(records) {
		return records, fmt.Errorf("merge left at %d of %d records: %w", index, len(records), ErrIndexOutOfRange)
	}
	f := s.call(opts).fields
	out := slices.Clone(records)
	survivor := maps.Clone(out[index])
	survivor[f.Start] = out[index-1][f.Start]
	out[index] = survivor
	return slices.Delete(out, index-1, index), nil
}

// MergeRight removes the record after index. The record at index keeps its
// payload and extends its end to the removed record's end.
func (s *Set) MergeRight(records RecordSet, index int, opts ...CallOption) (RecordSet, error) {
	if index < 0 || index >= len(records)-1 {
		return records, fmt.Errorf("merge right at %d of %d records: %w", index, len(records), ErrIndexOutOfRange)
	}
	f := s.call(opts).fields
	out := slices.Clone(records)
	survivor := maps.Clone(out[index])
	survivor[f.End] = out[index+1][f.End]
	out[index] = survivor
	return slices.Delete(out, index+1, index+2), nil
}

// RemovePeriod removes the record at index without touching its
// neighbours, reopening its span as a hole.
func (s *Set) RemovePeriod(records RecordSet, index int) (RecordSet, error) {
	if index < 0 || index >= len(records) {
		return records, fmt.Errorf("remove at %d of %d records: %w", index, len(records), ErrIndexOutOfRange)
	}
	return slices.Delete(slices.Clone(records), index, index+1), nil
}
