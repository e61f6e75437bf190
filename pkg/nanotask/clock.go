package nanotask

import "time"

// Clock is the time source tasks schedule against.
//
// Now readings must be non-decreasing for the life of the process. The
// instants are only ever compared and shifted by durations; callers
// must not read calendar meaning into them.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// time.Now carries a monotonic reading, so Before/Add on these values
// compare monotonic time, not wall time.
func (systemClock) Now() time.Time { return time.Now() }

// System is the process-wide monotonic clock.
var System Clock = systemClock{}
