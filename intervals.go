package validity

import (
	"slices"
	"time"
)

// SortedView returns a copy of records sorted by ascending start, the
// unbounded start first. Records sharing a start keep their order.
func (s *Set) SortedView(records RecordSet, opts ...CallOption) RecordSet {
	return sortedView(records, s.call(opts).fields)
}

func sortedView(records RecordSet, f Fields) RecordSet {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return CompareAsStart(a[f.Start], b[f.Start])
	})
	return sorted
}

// lookup scans the sorted records for the first one starting strictly after
// the target date. It returns the candidate index and the index of that
// first later record, -1 when there is none.
func lookup(sorted RecordSet, c call) (found int, greater int) {
	greater = -1
	for i, r := range sorted {
		if start, ok := Sanitize(r[c.fields.Start]); ok && CompareDays(start, c.date) > 0 {
			greater = i
			break
		}
	}
	switch {
	case len(sorted) == 0:
		found = -1
	case greater == -1:
		found = len(sorted) - 1
	case greater > 0:
		found = greater - 1
	default:
		found = 0
	}
	return found, greater
}

// Closest returns the record with the greatest start on or before the
// target date, and its index in the sorted view. When every record starts
// after the target the first one is returned. The end of the record is not
// looked at: the closest record may already be expired.
func (s *Set) Closest(records RecordSet, opts ...CallOption) (Record, int) {
	c := s.call(opts)
	sorted := sortedView(records, c.fields)
	found, _ := lookup(sorted, c)
	if found < 0 {
		return nil, -1
	}
	return sorted[found], found
}

// AtDate returns the record whose period includes the target date, or nil.
// Unlike Closest it also requires the target not to be after the record's
// end nor before the first start.
func (s *Set) AtDate(records RecordSet, opts ...CallOption) Record {
	c := s.call(opts)
	sorted := sortedView(records, c.fields)
	found, greater := lookup(sorted, c)
	if found < 0 || greater == 0 {
		return nil
	}
	record := sorted[found]
	if end, ok := Sanitize(record[c.fields.End]); ok && CompareDays(end, c.date) < 0 {
		return nil
	}
	return record
}

// Overlap returns the intersection of a and b. Unbounded sides of the
// result are zero.
func Overlap(a, b Period) (Period, bool) {
	latestStart := maxDay(Resolve(a.Start, Start), Resolve(b.Start, Start))
	earliestEnd := minDay(Resolve(a.End, End), Resolve(b.End, End))
	if CompareDays(latestStart, earliestEnd) > 0 {
		return Period{}, false
	}
	return Period{Start: finite(latestStart), End: finite(earliestEnd)}, true
}

// IsSamePeriod reports whether a and b have the same bounds, unbounded
// sides included.
func IsSamePeriod(a, b Period) bool {
	return CompareDays(Resolve(a.Start, Start), Resolve(b.Start, Start)) == 0 &&
		CompareDays(Resolve(a.End, End), Resolve(b.End, End)) == 0
}

// CheckAgainst reports whether candidate overlaps none of the records.
// Records with exactly the candidate's period are skipped so that a record
// can be checked against a set which still contains it.
func (s *Set) CheckAgainst(records RecordSet, candidate Period, opts ...CallOption) bool {
	f := s.call(opts).fields
	for _, r := range records {
		p := r.Period(f)
		if IsSamePeriod(candidate, p) {
			continue
		}
		if _, ok := Overlap(candidate, p); ok {
			return false
		}
	}
	return true
}

// Holes lists the spans of the timeline covered by no record, in ascending
// order. An empty RecordSet has no known holes: callers wanting to tell
// "nothing covered" from "everything covered" must check len(records).
// A record starting on 0001-01-02 leaves a hole ending on BeginningOfTime,
// which String and CanonicalString render as unbounded.
func (s *Set) Holes(records RecordSet, opts ...CallOption) []Hole {
	f := s.call(opts).fields
	sorted := sortedView(records, f)
	holes := []Hole{}

	var lastEnd time.Time
	for i, r := range sorted {
		p := r.Period(f)
		if !p.Start.IsZero() {
			before := p.Start.AddDate(0, 0, -1)
			if lastEnd.IsZero() || CompareDays(lastEnd, before) < 0 {
				hole := Hole{End: before}
				if !lastEnd.IsZero() {
					hole.Start = lastEnd.AddDate(0, 0, 1)
				}
				holes = append(holes, hole)
			}
		}
		if !p.End.IsZero() {
			lastEnd = p.End
		}
		if i == len(sorted)-1 && !p.End.IsZero() {
			holes = append(holes, Hole{Start: p.End.AddDate(0, 0, 1)})
		}
	}
	return holes
}

// EnglobingPeriod returns the span from the earliest start to the latest
// end. It reports false for an empty RecordSet.
func (s *Set) EnglobingPeriod(records RecordSet, opts ...CallOption) (Period, bool) {
	if len(records) == 0 {
		return Period{}, false
	}
	f := s.call(opts).fields
	first := records[0].Period(f)
	start, end := Resolve(first.Start, Start), Resolve(first.End, End)
	for _, r := range records[1:] {
		p := r.Period(f)
		start = minDay(start, Resolve(p.Start, Start))
		end = maxDay(end, Resolve(p.End, End))
	}
	return Period{Start: finite(start), End: finite(end)}, true
}

func minDay(a, b time.Time) time.Time {
	if CompareDays(a, b) <= 0 {
		return a
	}
	return b
}

func maxDay(a, b time.Time) time.Time {
	if CompareDays(a, b) >= 0 {
		return a
	}
	return b
}
