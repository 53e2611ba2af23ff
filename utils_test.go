package validity_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pborges/validity"
)

const debug = false

// record builds a record over [start, end]; an empty string is unbounded.
func record(start, end string, kv ...any) validity.Record {
	r := validity.Record{
		validity.DefaultStartField: date(start),
		validity.DefaultEndField:   date(end),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}

func date(s string) any {
	if s == "" {
		return nil
	}
	return validity.AsTime(s)
}

func day(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	return validity.AsTime(s)
}

func period(start, end string) validity.Period {
	return validity.Period{Start: day(start), End: day(end)}
}

func newSet(t *testing.T, opts ...validity.Option) *validity.Set {
	t.Helper()
	set, err := validity.New(opts...)
	if err != nil {
		t.Fatalf("Failed to build set: %v", err)
	}
	return set
}

func highlight(on bool, s string) string {
	if !on {
		return s
	}
	return fmt.Sprintf("\033[%vm%s\033[0m", 32, s)
}

func PrintRecordTable(set *validity.Set, records validity.RecordSet, mark int) {
	f := set.Fields()
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithConfig(tablewriter.Config{
			Footer: tw.CellConfig{
				Formatting: tw.CellFormatting{MergeMode: tw.MergeHorizontal},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header([]string{"Index", "Start", "End", "Payload"})
	for i, r := range records {
		p := r.Period(f)
		payload := validity.Record{}
		for k, v := range r {
			if k != f.Start && k != f.End {
				payload[k] = v
			}
		}
		table.Append([]string{
			highlight(i == mark, fmt.Sprintf("%d", i)),
			highlight(i == mark, validity.CanonicalString(p.Start)),
			highlight(i == mark, validity.CanonicalString(p.End)),
			fmt.Sprintf("%v", payload),
		})
	}
	holes := set.Holes(records)
	footer := fmt.Sprintf("Holes: %v", holes)
	table.Footer(footer, footer, footer, footer)
	table.Render()
}

// validateRecords checks the RecordSet rules: sorted by start, every
// period well formed, no two periods sharing a day.
func validateRecords(t *testing.T, set *validity.Set, records validity.RecordSet) {
	t.Helper()
	f := set.Fields()
	for i := 1; i < len(records); i++ {
		if validity.CompareAsStart(records[i-1][f.Start], records[i][f.Start]) > 0 {
			t.Errorf("Records not ordered by start: record %d (%v) comes before record %d (%v)",
				i-1, records[i-1][f.Start], i, records[i][f.Start])
		}
	}
	for i, r := range records {
		if !validity.ValidatePeriod(r[f.Start], r[f.End]) {
			t.Errorf("Record %d has an invalid period %s", i, r.Period(f))
		}
		for j := i + 1; j < len(records); j++ {
			if o, ok := validity.Overlap(r.Period(f), records[j].Period(f)); ok {
				t.Errorf("Records %d and %d overlap on %s", i, j, o)
			}
		}
	}
}
