package clock

import "time"

// Clock is the time source for session expiry and idempotency record ages.
// Implementations return UTC.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
