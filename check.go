package validity

import (
	"errors"
	"strings"
	"time"
)

// Validation outcomes of CheckStart and CheckEnd. They are meant to be
// displayed next to the edited field.
var (
	ErrInvalidDate       = errors.New("date is not valid")
	ErrInvalidPeriod     = errors.New("starting and ending dates do not make a valid interval")
	ErrStartIncompatible = errors.New("starting date is incompatible with other validity periods")
	ErrEndIncompatible   = errors.New("ending date is incompatible with other validity periods")
)

// ValidatePeriod reports whether start is on or before end. Missing
// bounds are unbounded.
func ValidatePeriod(start, end any) bool {
	return CompareDays(Resolve(start, Start), Resolve(end, End)) <= 0
}

// CheckStart validates the start date of edited against the other records.
// It returns nil when the edit is acceptable.
func (s *Set) CheckStart(records RecordSet, edited Record, opts ...CallOption) error {
	return s.check(records, edited, Start, opts)
}

// CheckEnd validates the end date of edited against the other records.
func (s *Set) CheckEnd(records RecordSet, edited Record, opts ...CallOption) error {
	return s.check(records, edited, End, opts)
}

func (s *Set) check(records RecordSet, edited Record, bound Bound, opts []CallOption) error {
	f := s.call(opts).fields
	field, incompatible := f.Start, ErrStartIncompatible
	if bound == End {
		field, incompatible = f.End, ErrEndIncompatible
	}

	if v := edited[field]; isSet(v) && !IsValid(v) {
		s.logger.Warn("invalid date", "field", field, "value", v)
		return ErrInvalidDate
	}
	if !ValidatePeriod(edited[f.Start], edited[f.End]) {
		return ErrInvalidPeriod
	}
	if !s.CheckAgainst(records, edited.Period(f), opts...) {
		return incompatible
	}
	return nil
}

// isSet tells an absent bound from a present but possibly invalid one.
func isSet(v any) bool {
	switch d := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(d) != ""
	case time.Time:
		return !d.IsZero()
	case *time.Time:
		return d != nil && !d.IsZero()
	}
	return true
}
