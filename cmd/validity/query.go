package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pborges/validity"
	"github.com/pborges/validity/store"
	"github.com/spf13/cobra"
)

func init() {
	closestCmd := &cobra.Command{
		Use:   "closest",
		Short: "Show the record starting last on or before a day",
		Long: `Shows the record with the greatest start on or before --date (today by
default). The record may have ended already; use "at" to require coverage.`,
		Args: cobra.NoArgs,
		RunE: runClosest,
	}
	closestCmd.Flags().String("date", "", "day to look at (default today)")

	atCmd := &cobra.Command{
		Use:   "at",
		Short: "Show the record valid on a day",
		Args:  cobra.NoArgs,
		RunE:  runAt,
	}
	atCmd.Flags().String("date", "", "day to look at (default today)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [field...]",
		Short: "Show how payload fields vary across the records",
		Long: `Shows, for each field, how many records hold it and whether its value
changes over time. A changing field shows its value on --date.`,
		RunE: runAnalyze,
	}
	analyzeCmd.Flags().String("date", "", "day whose value is shown for changing fields (default today)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "entities",
			Short: "List the stored entities",
			Args:  cobra.NoArgs,
			RunE:  runEntities,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the records of an entity and the holes between them",
			Args:  cobra.NoArgs,
			RunE:  runShow,
		},
		&cobra.Command{
			Use:   "holes",
			Short: "List the spans covered by no record",
			Args:  cobra.NoArgs,
			RunE:  runHoles,
		},
		&cobra.Command{
			Use:   "band",
			Short: "Split the timeline into used and free segments",
			Args:  cobra.NoArgs,
			RunE:  runBand,
		},
		closestCmd,
		atCmd,
		analyzeCmd,
	)
}

func runEntities(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entities, err := s.store.Entities(cmd.Context())
	if err != nil {
		return fmt.Errorf("entities: %w", err)
	}
	for _, e := range entities {
		fmt.Fprintln(cmd.OutOrStdout(), e)
	}
	return nil
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, records, err := s.records(cmd.Context())
	if err != nil {
		return err
	}
	return renderRecords(cmd.OutOrStdout(), s.set, records, -1)
}

func runHoles(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, records, err := s.records(cmd.Context())
	if err != nil {
		return err
	}
	return renderHoles(cmd.OutOrStdout(), s.set.Holes(records))
}

func runBand(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entity, records, err := s.records(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		// Band cannot tell an empty entity from a fully covered one
		return renderBand(cmd.OutOrStdout(), []validity.Segment{{Kind: validity.Free}})
	}
	s.logger.Debug("band", "entity", entity, "records", len(records))
	return renderBand(cmd.OutOrStdout(), validity.Band(s.set.Holes(records)))
}

func runClosest(cmd *cobra.Command, _ []string) error {
	ctx, err := momentContext(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, records, err := s.records(ctx)
	if err != nil {
		return err
	}
	sorted := s.set.SortedView(records)
	_, index := s.set.Closest(sorted, validity.AtContextMoment(ctx))
	if index < 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no record")
		return nil
	}
	return renderRecords(cmd.OutOrStdout(), s.set, sorted, index)
}

func runAt(cmd *cobra.Command, _ []string) error {
	ctx, err := momentContext(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entity, err := s.entity()
	if err != nil {
		return err
	}
	current, err := s.store.Current(ctx, entity)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "no record valid on %s\n", validity.CanonicalString(validity.ValidMoment(ctx)))
		return nil
	}
	if err != nil {
		return err
	}
	return renderRecords(cmd.OutOrStdout(), s.set, validity.RecordSet{current}, 0)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, err := momentContext(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, records, err := s.records(ctx)
	if err != nil {
		return err
	}

	fields := args
	if len(fields) == 0 {
		fields = payloadFields(records, s.set.Fields())
	}
	analyses := make([]validity.FieldAnalysis, 0, len(fields))
	for _, field := range fields {
		analyses = append(analyses, s.set.Analyze(records, field, validity.AtContextMoment(ctx)))
	}
	return renderAnalysis(cmd.OutOrStdout(), analyses)
}

// payloadFields lists every non-bound field used by records, sorted.
func payloadFields(records validity.RecordSet, f validity.Fields) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			if k != f.Start && k != f.End && k != store.IDField {
				seen[k] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
