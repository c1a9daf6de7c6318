package clock

import "time"

// Clock supplies the current time. Injected so cooldown and reminder logic
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}
