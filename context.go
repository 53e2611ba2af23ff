package validity

import (
	"context"
	"time"
)

type contextKey string

const validMomentKey contextKey = "ValidMomentKey"

// InitializeContext sets the valid moment to now if none is set yet.
func InitializeContext(ctx context.Context) context.Context {
	if _, ok := ctx.Value(validMomentKey).(time.Time); !ok {
		ctx = WithValidMoment(ctx, time.Now())
	}
	return ctx
}

// ValidMoment returns the day lookups are made at, or the zero time.
func ValidMoment(ctx context.Context) time.Time {
	if t, ok := ctx.Value(validMomentKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}

func WithValidMoment(ctx context.Context, moment time.Time) context.Context {
	return context.WithValue(ctx, validMomentKey, day(moment))
}

// AtContextMoment targets Closest and AtDate at the valid moment of ctx.
// Without one the Set's clock is used.
func AtContextMoment(ctx context.Context) CallOption {
	return OnDate(ValidMoment(ctx))
}
