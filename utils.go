package validity

import (
	"fmt"
	"time"
)

// AsTime converts a day string to a time.Time and panics if it cannot.
// This exists purely for developer laziness in tests and fixtures.
func AsTime(s string) time.Time {
	t, ok := Sanitize(s)
	if !ok {
		panic(fmt.Errorf("not a valid date: %q", s))
	}
	return t
}
