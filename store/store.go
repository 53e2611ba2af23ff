// Package store keeps the RecordSets of many entities in a sqlite database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pborges/validity"
)

// IDField is the record field holding the row identifier.
const IDField = "id"

var ErrNotFound = errors.New("no record valid at that moment")

//go:embed schema.sql
var schema string

var pragmas = []string{
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA cache_size = 100000",
	"PRAGMA temp_store = MEMORY",
}

type Store struct {
	db     *sql.DB
	set    *validity.Set
	logger *slog.Logger
}

type Option func(s *Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens or creates the database at path. The Set decides which record
// fields hold the validity bounds.
func Open(path string, set *validity.Set, opts ...Option) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive across queries
	database.SetMaxOpenConns(1)

	s := &Store{db: database, set: set, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, err
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.logger.Debug("query", "sql", query, "args", args)
	return s.db.QueryContext(ctx, query, args...)
}

// Save replaces the RecordSet of entity. Records are stored sorted; those
// without an id, or repeating an id already used in records, get a new one.
func (s *Store) Save(ctx context.Context, entity string, records validity.RecordSet) error {
	f := s.set.Fields()
	sorted := s.set.SortedView(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM validity_records WHERE entity = ?", entity); err != nil {
		return fmt.Errorf("clear %s: %w", entity, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO validity_records (id, entity, seq, start_date, end_date, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seen := make(map[string]bool, len(sorted))
	for i, r := range sorted {
		id, _ := r[IDField].(string)
		if id == "" || seen[id] {
			// records made by NewRecord may carry their reference's id
			id = uuid.NewString()
		}
		seen[id] = true
		payload := maps.Clone(r)
		delete(payload, f.Start)
		delete(payload, f.End)
		delete(payload, IDField)
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode record %d of %s: %w", i, entity, err)
		}
		p := r.Period(f)
		if _, err := stmt.ExecContext(ctx, id, entity, i, nullDate(p.Start), nullDate(p.End), string(encoded)); err != nil {
			return fmt.Errorf("insert record %d of %s: %w", i, entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("saved records", "entity", entity, "count", len(sorted))
	return nil
}

// Load returns the RecordSet of entity, sorted. An unknown entity has an
// empty RecordSet.
func (s *Store) Load(ctx context.Context, entity string) (validity.RecordSet, error) {
	rows, err := s.query(ctx, "SELECT id, start_date, end_date, payload FROM validity_records WHERE entity = ? ORDER BY seq", entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := validity.RecordSet{}
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entity, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Current returns the record of entity valid at the valid moment of ctx,
// today when ctx carries none.
func (s *Store) Current(ctx context.Context, entity string) (validity.Record, error) {
	ctx = validity.InitializeContext(ctx)
	moment := validity.CanonicalString(validity.ValidMoment(ctx))

	rows, err := s.query(ctx, `
		SELECT id, start_date, end_date, payload FROM validity_records
		WHERE entity = @entity
		  AND (start_date IS NULL OR start_date <= @moment)
		  AND (end_date IS NULL OR @moment <= end_date)
		ORDER BY seq LIMIT 1`,
		sql.Named("entity", entity), sql.Named("moment", moment))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s at %s: %w", entity, moment, ErrNotFound)
	}
	return s.scan(rows)
}

// Entities lists the stored entities in ascending order.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, "SELECT DISTINCT entity FROM validity_records ORDER BY entity")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func (s *Store) scan(rows *sql.Rows) (validity.Record, error) {
	var (
		id         string
		start, end sql.NullString
		payload    string
	)
	if err := rows.Scan(&id, &start, &end, &payload); err != nil {
		return nil, err
	}
	r := validity.Record{}
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	f := s.set.Fields()
	r[IDField] = id
	r[f.Start] = fromNullDate(start)
	r[f.End] = fromNullDate(end)
	return r, nil
}

func nullDate(t time.Time) sql.NullString {
	s := validity.CanonicalString(t)
	return sql.NullString{String: s, Valid: s != ""}
}

func fromNullDate(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	if t, ok := validity.Sanitize(s.String); ok {
		return t
	}
	return nil
}
