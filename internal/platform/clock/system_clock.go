package clock

import "time"

// SystemClock reads the wall clock in UTC, truncated to the microsecond precision of
// Postgres timestamptz so values compare equal after a round trip through storage.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
