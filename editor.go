package validity

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

var (
	ErrNoReference   = errors.New("unable to find a reference record")
	ErrPeriodNotFree = errors.New("period overlaps an existing validity period")
)

type ChangeKind int

const (
	Added ChangeKind = iota
	StartChanged
	EndChanged
	MergedLeft
	MergedRight
	Removed
	PeriodChanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case StartChanged:
		return "start-changed"
	case EndChanged:
		return "end-changed"
	case MergedLeft:
		return "merged-left"
	case MergedRight:
		return "merged-right"
	case Removed:
		return "removed"
	case PeriodChanged:
		return "period-changed"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change describes a committed mutation. Index is the position of the
// affected record in Records after the change; for Removed it is the
// position the record used to have.
type Change struct {
	Kind    ChangeKind
	Index   int
	Records RecordSet
}

type Observer func(Change)

// Editor is the editing session of one entity's RecordSet. Every mutation
// is validated first and committed only when valid, then reported to the
// observers. An Editor is not safe for concurrent use.
type Editor struct {
	set       *Set
	records   RecordSet
	observers []Observer
}

func NewEditor(set *Set, records RecordSet) *Editor {
	return &Editor{set: set, records: set.SortedView(records)}
}

// Observe registers o to be called after each committed change.
func (e *Editor) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Editor) Records() RecordSet {
	return slices.Clone(e.records)
}

func (e *Editor) Len() int {
	return len(e.records)
}

func (e *Editor) Holes() []Hole {
	return e.set.Holes(e.records)
}

func (e *Editor) Closest(opts ...CallOption) (Record, int) {
	return e.set.Closest(e.records, opts...)
}

func (e *Editor) AtDate(opts ...CallOption) Record {
	return e.set.AtDate(e.records, opts...)
}

func (e *Editor) EnglobingPeriod() (Period, bool) {
	return e.set.EnglobingPeriod(e.records)
}

// Add inserts a record over period, which must be free.
func (e *Editor) Add(period Period) (int, error) {
	if !ValidatePeriod(period.Start, period.End) {
		return -1, ErrInvalidPeriod
	}
	if !e.set.CheckAgainst(e.records, period) || hasPeriod(e.records, period, e.set.fields) {
		return -1, fmt.Errorf("add %s: %w", period, ErrPeriodNotFree)
	}
	records, index := e.set.NewRecord(e.records, period)
	if index < 0 {
		return -1, fmt.Errorf("add %s: %w", period, ErrNoReference)
	}
	e.commit(Change{Kind: Added, Index: index, Records: records})
	return index, nil
}

// SetStart changes the start of the record at index. The RecordSet is left
// untouched when the new value does not validate.
func (e *Editor) SetStart(index int, v any) error {
	return e.setBound(index, v, Start)
}

// SetEnd changes the end of the record at index.
func (e *Editor) SetEnd(index int, v any) error {
	return e.setBound(index, v, End)
}

func (e *Editor) setBound(index int, v any, b Bound) error {
	if index < 0 || index >= len(e.records) {
		return fmt.Errorf("set %s at %d of %d records: %w", b, index, len(e.records), ErrIndexOutOfRange)
	}
	f := e.set.fields
	field, check, kind := f.Start, e.set.CheckStart, StartChanged
	if b == End {
		field, check, kind = f.End, e.set.CheckEnd, EndChanged
	}

	candidate := maps.Clone(e.records[index])
	candidate[field] = v
	others := slices.Delete(slices.Clone(e.records), index, index+1)
	if err := check(others, candidate); err != nil {
		return err
	}
	// others no longer holds the edited record, so an identical period
	// there is a real conflict.
	if hasPeriod(others, candidate.Period(f), f) {
		if b == End {
			return ErrEndIncompatible
		}
		return ErrStartIncompatible
	}

	candidate[field] = boundValue(v)
	records := slices.Clone(e.records)
	records[index] = candidate
	records = sortedView(records, f)
	e.commit(Change{Kind: kind, Index: indexOf(records, candidate), Records: records})
	return nil
}

// SetPeriod changes both bounds of the record at index at once, so a record
// can move to a span its current bounds do not touch. The two bounds are
// validated together and committed as a single change.
func (e *Editor) SetPeriod(index int, start, end any) error {
	if index < 0 || index >= len(e.records) {
		return fmt.Errorf("set period at %d of %d records: %w", index, len(e.records), ErrIndexOutOfRange)
	}
	f := e.set.fields
	for _, v := range []any{start, end} {
		if isSet(v) && !IsValid(v) {
			e.set.logger.Warn("invalid date", "value", v)
			return ErrInvalidDate
		}
	}
	if !ValidatePeriod(start, end) {
		return ErrInvalidPeriod
	}

	candidate := maps.Clone(e.records[index])
	candidate[f.Start] = boundValue(start)
	candidate[f.End] = boundValue(end)
	period := candidate.Period(f)
	others := slices.Delete(slices.Clone(e.records), index, index+1)
	if !e.set.CheckAgainst(others, period) || hasPeriod(others, period, f) {
		return fmt.Errorf("set %s: %w", period, ErrPeriodNotFree)
	}

	records := slices.Clone(e.records)
	records[index] = candidate
	records = sortedView(records, f)
	e.commit(Change{Kind: PeriodChanged, Index: indexOf(records, candidate), Records: records})
	return nil
}

func (e *Editor) MergeLeft(index int) error {
	records, err := e.set.MergeLeft(e.records, index)
	if err != nil {
		return err
	}
	e.commit(Change{Kind: MergedLeft, Index: index - 1, Records: records})
	return nil
}

func (e *Editor) MergeRight(index int) error {
	records, err := e.set.MergeRight(e.records, index)
	if err != nil {
		return err
	}
	e.commit(Change{Kind: MergedRight, Index: index, Records: records})
	return nil
}

func (e *Editor) Remove(index int) error {
	records, err := e.set.RemovePeriod(e.records, index)
	if err != nil {
		return err
	}
	e.commit(Change{Kind: Removed, Index: index, Records: records})
	return nil
}

func (e *Editor) commit(c Change) {
	e.records = c.Records
	e.set.logger.Debug("validity change", "kind", c.Kind.String(), "index", c.Index, "records", len(c.Records))
	for _, o := range e.observers {
		o(Change{Kind: c.Kind, Index: c.Index, Records: slices.Clone(c.Records)})
	}
}

func hasPeriod(records RecordSet, p Period, f Fields) bool {
	return slices.ContainsFunc(records, func(r Record) bool {
		return IsSamePeriod(r.Period(f), p)
	})
}

// indexOf finds r by identity.
func indexOf(records RecordSet, r Record) int {
	for i := range records {
		if sameRecord(records[i], r) {
			return i
		}
	}
	return -1
}

func sameRecord(a, b Record) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
