package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pborges/validity"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Footer: tw.CellConfig{
				Formatting: tw.CellFormatting{MergeMode: tw.MergeHorizontal},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
}

func startString(t time.Time) string {
	if s := validity.CanonicalString(t); s != "" {
		return s
	}
	return "-inf"
}

func endString(t time.Time) string {
	if s := validity.CanonicalString(t); s != "" {
		return s
	}
	return "+inf"
}

// payloadString renders the non-bound fields of r in key order.
func payloadString(r validity.Record, f validity.Fields) string {
	keys := slices.Sorted(maps.Keys(r))
	var out []byte
	for _, k := range keys {
		if k == f.Start || k == f.End {
			continue
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%s=%v", k, r[k])
	}
	return string(out)
}

// renderRecords prints records with the row at mark flagged, -1 for none.
// The footer lists the holes.
func renderRecords(w io.Writer, set *validity.Set, records validity.RecordSet, mark int) error {
	f := set.Fields()
	table := newTable(w)
	table.Header([]string{"Index", "Start", "End", "Payload"})
	for i, r := range records {
		p := r.Period(f)
		index := strconv.Itoa(i)
		if i == mark {
			index = "*" + index
		}
		if err := table.Append([]string{index, startString(p.Start), endString(p.End), payloadString(r, f)}); err != nil {
			return err
		}
	}
	footer := fmt.Sprintf("Holes: %v", set.Holes(records))
	table.Footer(footer, footer, footer, footer)
	return table.Render()
}

func renderHoles(w io.Writer, holes []validity.Hole) error {
	table := newTable(w)
	table.Header([]string{"Hole", "Start", "End"})
	for i, h := range holes {
		if err := table.Append([]string{strconv.Itoa(i), startString(h.Start), endString(h.End)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderBand(w io.Writer, segments []validity.Segment) error {
	table := newTable(w)
	table.Header([]string{"Segment", "Start", "End"})
	for _, s := range segments {
		if err := table.Append([]string{s.Kind.String(), startString(s.Start), endString(s.End)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderAnalysis(w io.Writer, analyses []validity.FieldAnalysis) error {
	table := newTable(w)
	table.Header([]string{"Field", "Records", "Unset", "Empty", "Varies", "Value"})
	for _, a := range analyses {
		value := ""
		if a.First {
			value = fmt.Sprintf("%v", a.Value)
		}
		row := []string{a.Field, strconv.Itoa(a.Count), strconv.Itoa(a.Unset), strconv.Itoa(a.Empty), strconv.FormatBool(a.Diff), value}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
