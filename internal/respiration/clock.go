package respiration

import (
	"encoding/json"
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Clock is an elapsed-time offset displayed as a time of day, as if the
// recording had started at 00:00:00 on the Unix epoch. Fractional seconds are
// truncated and offsets of 24h or more wrap back to 00:00:00.
//
// Downstream displays depend on the wrap, so a 25h recording reports a
// duration of "01:00:00".
type Clock struct {
	sec int32 // [0, secondsPerDay)
}

// ClockFromSeconds converts an elapsed offset in seconds to a Clock.
func ClockFromSeconds(seconds float64) Clock {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Clock{}
	}
	s := math.Mod(math.Floor(seconds), secondsPerDay)
	if s < 0 {
		s += secondsPerDay
	}
	return Clock{sec: int32(s)}
}

// ClockFromDuration converts an elapsed duration to a Clock.
func ClockFromDuration(d time.Duration) Clock {
	return ClockFromSeconds(math.Floor(d.Seconds()))
}

// Seconds returns the seconds since midnight.
func (c Clock) Seconds() int {
	return int(c.sec)
}

// Time returns the clock as a time on 1970-01-01 UTC.
func (c Clock) Time() time.Time {
	return time.Unix(int64(c.sec), 0).UTC()
}

func (c Clock) String() string {
	return c.Time().Format(time.TimeOnly)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}
