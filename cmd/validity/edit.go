package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/pborges/validity"
	"github.com/spf13/cobra"
)

var ErrOverlap = errors.New("records overlap")

func init() {
	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace the records of entities from a JSON file",
		Long: `Reads either an array of records, stored under --entity, or an object
mapping entity names to arrays of records. Every RecordSet is validated
before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate new bounds without saving them",
		Long: `Validates --start and/or --end as the new bounds of the record at --index,
or of a new record when --index is not given.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
	checkCmd.Flags().Int("index", -1, "record to edit")
	checkCmd.Flags().String("start", "", "start date, empty for unbounded")
	checkCmd.Flags().String("end", "", "end date, empty for unbounded")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record over a free period",
		Long: `Adds a record over [--start, --end], or over hole --hole as listed by the
"holes" command. Its payload is copied from the neighbouring record.`,
		Args: cobra.NoArgs,
		RunE: runAdd,
	}
	addCmd.Flags().Int("hole", -1, "hole to fill")
	addCmd.Flags().String("start", "", "start date, empty for unbounded")
	addCmd.Flags().String("end", "", "end date, empty for unbounded")

	setCmd := &cobra.Command{
		Use:   "set <index>",
		Short: "Change the bounds of a record",
		Long: `Changes --start and/or --end of the record at <index>. When both are
given they are validated together, so the record can move to another free span.`,
		Args: cobra.ExactArgs(1),
		RunE: runSet,
	}
	setCmd.Flags().String("start", "", "new start date, empty for unbounded")
	setCmd.Flags().String("end", "", "new end date, empty for unbounded")

	rootCmd.AddCommand(
		importCmd,
		checkCmd,
		addCmd,
		setCmd,
		&cobra.Command{
			Use:   "merge-left <index>",
			Short: "Merge a record into the following one",
			Long:  "Removes the record before <index> and extends the record at <index> back to its start.",
			Args:  cobra.ExactArgs(1),
			RunE:  runIndexEdit((*validity.Editor).MergeLeft),
		},
		&cobra.Command{
			Use:   "merge-right <index>",
			Short: "Merge a record into the preceding one",
			Long:  "Removes the record after <index> and extends the record at <index> up to its end.",
			Args:  cobra.ExactArgs(1),
			RunE:  runIndexEdit((*validity.Editor).MergeRight),
		},
		&cobra.Command{
			Use:   "remove <index>",
			Short: "Remove a record, leaving a hole",
			Args:  cobra.ExactArgs(1),
			RunE:  runIndexEdit((*validity.Editor).Remove),
		},
	)
}

// decodeImport reads a RecordSet array for defaultEntity, or an object of
// RecordSets keyed by entity.
func decodeImport(data []byte, defaultEntity string) (map[string]validity.RecordSet, error) {
	var records validity.RecordSet
	if err := json.Unmarshal(data, &records); err == nil {
		if defaultEntity == "" {
			return nil, ErrNoEntity
		}
		return map[string]validity.RecordSet{defaultEntity: records}, nil
	}
	var byEntity map[string]validity.RecordSet
	if err := json.Unmarshal(data, &byEntity); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return byEntity, nil
}

// validateImport checks that records form a valid RecordSet.
func validateImport(set *validity.Set, records validity.RecordSet) error {
	f := set.Fields()
	sorted := set.SortedView(records)
	for i, r := range sorted {
		for _, field := range []string{f.Start, f.End} {
			if v, ok := r[field]; ok && v != nil && v != "" && !validity.IsValid(v) {
				return fmt.Errorf("record %d: %s %v: %w", i, field, v, validity.ErrInvalidDate)
			}
		}
		if !validity.ValidatePeriod(r[f.Start], r[f.End]) {
			return fmt.Errorf("record %d %s: %w", i, r.Period(f), validity.ErrInvalidPeriod)
		}
		if i > 0 {
			if o, ok := validity.Overlap(sorted[i-1].Period(f), r.Period(f)); ok {
				return fmt.Errorf("records %d and %d share %s: %w", i-1, i, o, ErrOverlap)
			}
		}
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	byEntity, err := decodeImport(data, s.cfg.Entity)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	entities := slices.Sorted(maps.Keys(byEntity))
	for _, entity := range entities {
		if err := validateImport(s.set, byEntity[entity]); err != nil {
			return fmt.Errorf("import %s: %s: %w", args[0], entity, err)
		}
	}
	for _, entity := range entities {
		if err := s.store.Save(cmd.Context(), entity, byEntity[entity]); err != nil {
			return fmt.Errorf("import %s: %w", entity, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", entity, len(byEntity[entity]))
	}
	return nil
}

// boundFlag returns the raw value of a bound flag and whether it was given.
// An empty value stands for an unbounded side.
func boundFlag(cmd *cobra.Command, name string) (any, bool) {
	if !cmd.Flags().Changed(name) {
		return nil, false
	}
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, true
	}
	return v, true
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, records, err := s.records(cmd.Context())
	if err != nil {
		return err
	}
	f := s.set.Fields()
	sorted := s.set.SortedView(records)

	index, _ := cmd.Flags().GetInt("index")
	edited := validity.Record{}
	others := sorted
	if index >= 0 {
		if index >= len(sorted) {
			return fmt.Errorf("check %d of %d records: %w", index, len(sorted), validity.ErrIndexOutOfRange)
		}
		edited = maps.Clone(sorted[index])
		others = slices.Delete(slices.Clone(sorted), index, index+1)
	}

	start, hasStart := boundFlag(cmd, "start")
	end, hasEnd := boundFlag(cmd, "end")
	if hasStart || index < 0 {
		edited[f.Start] = start
	}
	if hasEnd || index < 0 {
		edited[f.End] = end
	}

	var errs []error
	if hasStart || !hasEnd {
		errs = append(errs, s.set.CheckStart(others, edited))
	}
	if hasEnd {
		errs = append(errs, s.set.CheckEnd(others, edited))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", edited.Period(f))
	return nil
}

func runAdd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	change, err := s.edit(cmd.Context(), func(e *validity.Editor) error {
		var period validity.Period
		if hole, _ := cmd.Flags().GetInt("hole"); hole >= 0 {
			holes := e.Holes()
			if hole >= len(holes) {
				return fmt.Errorf("hole %d of %d: %w", hole, len(holes), validity.ErrIndexOutOfRange)
			}
			period = holes[hole]
		} else {
			start, _ := boundFlag(cmd, "start")
			end, _ := boundFlag(cmd, "end")
			var ok bool
			if start != nil {
				if period.Start, ok = validity.Sanitize(start); !ok {
					return fmt.Errorf("--start %v: %w", start, validity.ErrInvalidDate)
				}
			}
			if end != nil {
				if period.End, ok = validity.Sanitize(end); !ok {
					return fmt.Errorf("--end %v: %w", end, validity.ErrInvalidDate)
				}
			}
		}
		_, err := e.Add(period)
		return err
	})
	if err != nil {
		return err
	}
	return renderRecords(cmd.OutOrStdout(), s.set, change.Records, change.Index)
}

func runSet(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("index %q: %w", args[0], err)
	}
	start, hasStart := boundFlag(cmd, "start")
	end, hasEnd := boundFlag(cmd, "end")
	if !hasStart && !hasEnd {
		return errors.New("nothing to set: use --start and/or --end")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	change, err := s.edit(cmd.Context(), func(e *validity.Editor) error {
		if hasStart && hasEnd {
			return e.SetPeriod(index, start, end)
		}
		i := index
		if hasStart {
			if err := e.SetStart(i, start); err != nil {
				return err
			}
			// an unbounded start sorts first, otherwise find the record
			// starting on the new day
			i = 0
			if d, ok := validity.Sanitize(start); ok {
				_, i = e.Closest(validity.OnDate(d))
			}
		}
		if hasEnd {
			return e.SetEnd(i, end)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return renderRecords(cmd.OutOrStdout(), s.set, change.Records, change.Index)
}

func runIndexEdit(edit func(*validity.Editor, int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index %q: %w", args[0], err)
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		change, err := s.edit(cmd.Context(), func(e *validity.Editor) error {
			return edit(e, index)
		})
		if err != nil {
			return err
		}
		mark := change.Index
		if change.Kind == validity.Removed {
			mark = -1
		}
		return renderRecords(cmd.OutOrStdout(), s.set, change.Records, mark)
	}
}
