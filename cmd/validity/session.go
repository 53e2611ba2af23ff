package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pborges/validity"
	"github.com/pborges/validity/store"
	"github.com/spf13/cobra"
)

var ErrNoEntity = errors.New("no entity given: use --entity or VALIDITY_ENTITY")

// session bundles what a command needs: configuration, the Set and an open
// store.
type session struct {
	cfg    Config
	logger *slog.Logger
	set    *validity.Set
	store  *store.Store
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())
	set, err := cfg.Set(logger)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DB, set, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB, err)
	}
	logger.Debug("session opened", "db", cfg.DB, "fields", cfg.Fields())
	return &session{cfg: cfg, logger: logger, set: set, store: st}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func (s *session) entity() (string, error) {
	if s.cfg.Entity == "" {
		return "", ErrNoEntity
	}
	return s.cfg.Entity, nil
}

func (s *session) records(ctx context.Context) (string, validity.RecordSet, error) {
	entity, err := s.entity()
	if err != nil {
		return "", nil, err
	}
	records, err := s.store.Load(ctx, entity)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", entity, err)
	}
	return entity, records, nil
}

// edit runs fn in an editing session over the entity's records and saves
// them once fn committed a change.
func (s *session) edit(ctx context.Context, fn func(e *validity.Editor) error) (validity.Change, error) {
	entity, records, err := s.records(ctx)
	if err != nil {
		return validity.Change{}, err
	}

	editor := validity.NewEditor(s.set, records)
	var committed *validity.Change
	editor.Observe(func(c validity.Change) {
		s.logger.Info("change committed", "entity", entity, "kind", c.Kind.String(), "index", c.Index)
		committed = &c
	})

	if err := fn(editor); err != nil {
		return validity.Change{}, err
	}
	if committed == nil {
		return validity.Change{}, nil
	}
	if err := s.store.Save(ctx, entity, committed.Records); err != nil {
		return validity.Change{}, fmt.Errorf("save %s: %w", entity, err)
	}
	return *committed, nil
}

// momentContext carries the --date flag of cmd, today when unset.
func momentContext(cmd *cobra.Command) (context.Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return validity.InitializeContext(ctx), nil
	}
	d, ok := validity.Sanitize(raw)
	if !ok {
		return nil, fmt.Errorf("--date %q: %w", raw, validity.ErrInvalidDate)
	}
	return validity.WithValidMoment(ctx, d), nil
}
