package validity_test

import (
	"errors"
	"testing"

	"github.com/pborges/validity"
)

func TestEditorAdd(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, february())

	var changes []validity.Change
	editor.Observe(func(c validity.Change) {
		changes = append(changes, c)
	})

	index, err := editor.Add(editor.Holes()[0])
	if err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if index != 1 {
		t.Errorf("Expected index 1, got %d", index)
	}
	if editor.Len() != 3 {
		t.Errorf("Expected 3 records, got %d", editor.Len())
	}
	if len(changes) != 1 || changes[0].Kind != validity.Added || changes[0].Index != 1 {
		t.Fatalf("Expected a single added change at 1, got %+v", changes)
	}
	if len(changes[0].Records) != 3 {
		t.Errorf("Expected the observer to get the new records, got %d", len(changes[0].Records))
	}
	validateRecords(t, set, editor.Records())
}

func TestEditorAddRejected(t *testing.T) {
	set := newSet(t)

	testCases := []struct {
		name     string
		records  validity.RecordSet
		period   validity.Period
		expected error
	}{
		{"overlapping", february(), period("2023-01-15", "2023-02-15"), validity.ErrPeriodNotFree},
		{"same as an existing record", february(), period("", "2023-01-31"), validity.ErrPeriodNotFree},
		{"reversed", february(), period("2023-02-15", "2023-02-01"), validity.ErrInvalidPeriod},
		{"no reference", validity.RecordSet{}, period("2023-01-01", ""), validity.ErrNoReference},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			editor := validity.NewEditor(set, tc.records)
			notified := false
			editor.Observe(func(validity.Change) { notified = true })

			if _, err := editor.Add(tc.period); !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
			if notified {
				t.Errorf("Expected no notification")
			}
			if editor.Len() != len(tc.records) {
				t.Errorf("Expected %d records, got %d", len(tc.records), editor.Len())
			}
		})
	}
}

func TestEditorSetBounds(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, february())

	var last validity.Change
	editor.Observe(func(c validity.Change) { last = c })

	if err := editor.SetEnd(0, "2023-02-10"); err != nil {
		t.Fatalf("Failed to set end: %v", err)
	}
	if last.Kind != validity.EndChanged || last.Index != 0 {
		t.Errorf("Expected an end change at 0, got %s at %d", last.Kind, last.Index)
	}
	if got := editor.Records()[0]["effectEnd"]; got != day("2023-02-10") {
		t.Errorf("Expected the sanitized end, got %v", got)
	}

	if err := editor.SetStart(1, "2023-02-11"); err != nil {
		t.Fatalf("Failed to set start: %v", err)
	}
	if holes := editor.Holes(); len(holes) != 0 {
		t.Errorf("Expected no hole left, got %v", holes)
	}

	// clearing the end of the first record makes it overlap the second
	if err := editor.SetEnd(0, nil); !errors.Is(err, validity.ErrEndIncompatible) {
		t.Errorf("Expected %v, got %v", validity.ErrEndIncompatible, err)
	}
	if err := editor.SetStart(1, "someday"); !errors.Is(err, validity.ErrInvalidDate) {
		t.Errorf("Expected %v, got %v", validity.ErrInvalidDate, err)
	}
	if err := editor.SetStart(0, "2023-03-01"); !errors.Is(err, validity.ErrInvalidPeriod) {
		t.Errorf("Expected %v, got %v", validity.ErrInvalidPeriod, err)
	}
	if err := editor.SetStart(5, "2023-03-01"); !errors.Is(err, validity.ErrIndexOutOfRange) {
		t.Errorf("Expected %v, got %v", validity.ErrIndexOutOfRange, err)
	}
	if last.Kind != validity.StartChanged {
		t.Errorf("Expected rejected edits not to notify, last change is %s", last.Kind)
	}
	validateRecords(t, set, editor.Records())
}

func TestEditorSetStartBlankIsUnbounded(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, validity.RecordSet{
		record("2023-01-01", "2023-01-31", "label", "january"),
		record("2023-03-01", "2023-03-31", "label", "march"),
	})

	if err := editor.SetStart(0, " "); err != nil {
		t.Fatalf("Failed to clear start: %v", err)
	}
	records := editor.Records()
	if records[0]["effectStart"] != nil {
		t.Errorf("Expected a blank start to be stored as unbounded, got %v", records[0]["effectStart"])
	}
	if holes := editor.Holes(); len(holes) != 2 || !holes[0].Start.Equal(day("2023-02-01")) {
		t.Errorf("Expected the leading hole to be gone, got %v", holes)
	}
}

func TestEditorSetPeriodMovesIntoLaterHole(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, validity.RecordSet{
		record("2023-01-01", "2023-03-31", "label", "q1"),
		record("2023-06-01", "", "label", "summer"),
	})

	var changes []validity.Change
	editor.Observe(func(c validity.Change) { changes = append(changes, c) })

	// one bound at a time the record would pass through [2023-04-01 -> 2023-03-31]
	if err := editor.SetStart(0, "2023-04-01"); !errors.Is(err, validity.ErrInvalidPeriod) {
		t.Fatalf("Expected %v, got %v", validity.ErrInvalidPeriod, err)
	}
	if err := editor.SetPeriod(0, "2023-04-01", "2023-05-31"); err != nil {
		t.Fatalf("Failed to move the record: %v", err)
	}

	if len(changes) != 1 {
		t.Fatalf("Expected a single change, got %d", len(changes))
	}
	if changes[0].Kind != validity.PeriodChanged || changes[0].Index != 0 {
		t.Errorf("Expected a period change at 0, got %s at %d", changes[0].Kind, changes[0].Index)
	}
	records := editor.Records()
	if got := records[0].Period(set.Fields()).String(); got != "[2023-04-01 -> 2023-05-31]" {
		t.Errorf("Expected the moved period, got %s", got)
	}
	if records[0]["label"] != "q1" {
		t.Errorf("Expected the payload to follow, got %v", records[0]["label"])
	}
	holes := editor.Holes()
	if len(holes) != 1 || !holes[0].Start.IsZero() || !holes[0].End.Equal(day("2023-03-31")) {
		t.Errorf("Expected a single leading hole, got %v", holes)
	}
	validateRecords(t, set, records)
}

func TestEditorSetPeriodRejected(t *testing.T) {
	testCases := []struct {
		name       string
		index      int
		start, end any
		expected   error
	}{
		{"overlaps the next record", 0, "2023-05-01", "2023-06-15", validity.ErrPeriodNotFree},
		{"unbounded end", 0, "2023-04-01", nil, validity.ErrPeriodNotFree},
		{"reversed", 0, "2023-05-31", "2023-04-01", validity.ErrInvalidPeriod},
		{"invalid start", 0, "someday", "2023-04-01", validity.ErrInvalidDate},
		{"invalid end", 1, "2023-06-01", "never", validity.ErrInvalidDate},
		{"out of range", 2, "2023-04-01", "2023-05-31", validity.ErrIndexOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			editor := validity.NewEditor(newSet(t), validity.RecordSet{
				record("2023-01-01", "2023-03-31"),
				record("2023-06-01", ""),
			})
			notified := false
			editor.Observe(func(validity.Change) { notified = true })

			if err := editor.SetPeriod(tc.index, tc.start, tc.end); !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
			if notified {
				t.Errorf("Expected no notification")
			}
		})
	}
}

func TestEditorMergeAndRemove(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, scattered())

	var kinds []validity.ChangeKind
	editor.Observe(func(c validity.Change) { kinds = append(kinds, c.Kind) })

	if err := editor.MergeLeft(1); err != nil {
		t.Fatalf("Failed to merge left: %v", err)
	}
	if err := editor.MergeRight(1); err != nil {
		t.Fatalf("Failed to merge right: %v", err)
	}
	if err := editor.Remove(0); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if err := editor.MergeLeft(0); !errors.Is(err, validity.ErrIndexOutOfRange) {
		t.Errorf("Expected %v, got %v", validity.ErrIndexOutOfRange, err)
	}

	expected := []validity.ChangeKind{validity.MergedLeft, validity.MergedRight, validity.Removed}
	if len(kinds) != len(expected) {
		t.Fatalf("Expected changes %v, got %v", expected, kinds)
	}
	for i := range kinds {
		if kinds[i] != expected[i] {
			t.Errorf("Expected change %d to be %s, got %s", i, expected[i], kinds[i])
		}
	}

	records := editor.Records()
	if len(records) != 1 {
		t.Fatalf("Expected a single record, got %d", len(records))
	}
	if got := records[0].Period(set.Fields()).String(); got != "[2023-05-01 -> 2023-08-31]" {
		t.Errorf("Expected the merged may record, got %s", got)
	}
}

func TestEditorRecordsAreCopies(t *testing.T) {
	set := newSet(t)
	editor := validity.NewEditor(set, february())

	records := editor.Records()
	records[0] = validity.Record{}
	if editor.Records()[0]["label"] != "winter" {
		t.Errorf("Expected the editor to keep its own records")
	}
}
