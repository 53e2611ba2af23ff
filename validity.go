// Package validity manages the validity periods of an entity: whole-day,
// non-overlapping [start, end] intervals attached to versions of the
// entity's data.
//
// A missing start means "since the beginning of time", a missing end means
// "until the end of time". Every query and mutation is a pure function of
// the RecordSet it is given.
package validity

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultStartField = "effectStart"
	DefaultEndField   = "effectEnd"
)

var ErrInvalidFields = errors.New("start and end fields must be distinct non-empty names")

// Record is one version of an entity's data. The validity bounds live in
// the fields named by Fields; everything else is payload.
type Record map[string]any

// RecordSet holds the records of a single entity.
type RecordSet []Record

// Fields names the record fields holding the validity bounds.
type Fields struct {
	Start string
	End   string
}

func DefaultFields() Fields {
	return Fields{Start: DefaultStartField, End: DefaultEndField}
}

func (f Fields) Validate() error {
	if f.Start == "" || f.End == "" || f.Start == f.End {
		return fmt.Errorf("%w: got %q and %q", ErrInvalidFields, f.Start, f.End)
	}
	return nil
}

// Period is a [Start, End] span of whole days. A zero bound is unbounded.
type Period struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Hole is a span of the timeline covered by no record.
type Hole = Period

func (p Period) String() string {
	start, end := CanonicalString(p.Start), CanonicalString(p.End)
	if start == "" {
		start = "-inf"
	}
	if end == "" {
		end = "+inf"
	}
	return fmt.Sprintf("[%s -> %s]", start, end)
}

// IsFull reports whether p covers the whole timeline.
func (p Period) IsFull() bool {
	return IsInfinite(p.Start) && IsInfinite(p.End)
}

// Contains reports whether the day of t falls inside p.
func (p Period) Contains(t time.Time) bool {
	return CompareDays(Resolve(p.Start, Start), t) <= 0 && CompareDays(t, Resolve(p.End, End)) <= 0
}

// Period reads the validity bounds of r. Unparsable bounds and explicit
// sentinels are unbounded.
func (r Record) Period(f Fields) Period {
	start, _ := Sanitize(r[f.Start])
	end, _ := Sanitize(r[f.End])
	return Period{Start: finite(start), End: finite(end)}
}

// Set carries the configuration shared by the interval algebra, the
// validators and the record factory. It holds no records.
type Set struct {
	fields Fields
	copy   []string
	omit   []string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(s *Set)

func WithFields(f Fields) Option {
	return func(s *Set) {
		s.fields = f
	}
}

// WithCopyFields restricts the payload copied by NewRecord to the named
// fields. It takes precedence over WithOmitFields.
func WithCopyFields(fields ...string) Option {
	return func(s *Set) {
		s.copy = fields
	}
}

// WithOmitFields drops the named fields (identifiers, audit metadata...)
// from the payload copied by NewRecord.
func WithOmitFields(fields ...string) Option {
	return func(s *Set) {
		s.omit = fields
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Set) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Set) {
		s.logger = logger
	}
}

// New builds a Set. Fields default to effectStart/effectEnd.
func New(opts ...Option) (*Set, error) {
	s := &Set{
		fields: DefaultFields(),
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.fields.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) Fields() Fields {
	return s.fields
}

// CallOption overrides the Set configuration for a single call.
type CallOption func(c *call)

type call struct {
	fields Fields
	date   time.Time
}

func StartField(name string) CallOption {
	return func(c *call) {
		if name != "" {
			c.fields.Start = name
		}
	}
}

func EndField(name string) CallOption {
	return func(c *call) {
		if name != "" {
			c.fields.End = name
		}
	}
}

// OnDate sets the target date of Closest and AtDate. It defaults to now.
func OnDate(t time.Time) CallOption {
	return func(c *call) {
		c.date = t
	}
}

func (s *Set) call(opts []CallOption) call {
	c := call{fields: s.fields}
	for _, opt := range opts {
		opt(&c)
	}
	if c.date.IsZero() {
		c.date = s.now()
	}
	c.date = day(c.date)
	return c
}
