package effects

import (
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// TimeSpan is the interval a store change event happened in.
type TimeSpan = timespan.TimeSpan

const epsilon = time.Millisecond

// Now returns a span of two epsilons around the current instant.
func Now() TimeSpan {
	now := time.Now()
	return timespan.BetweenTimes(now.Add(-1*epsilon), now.Add(epsilon))
}
