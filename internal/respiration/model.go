package respiration

import (
	"encoding/json"
	"time"
)

// RawSample is one data row of a device export. Temperature and signal period
// columns are dropped by the reader and never reach this type.
type RawSample struct {
	EpochMillis    int64   `json:"epochMillis"`    // device timestamp, milliseconds since the Unix epoch
	ElapsedSeconds float64 `json:"elapsedSeconds"` // seconds since recording start
	RateBpm        float64 `json:"rateBpm"`        // instantaneous respiration rate
}

// Timestamp returns the calendar time of the sample in UTC.
func (s RawSample) Timestamp() time.Time {
	return time.UnixMilli(s.EpochMillis).UTC()
}

// Clock returns the elapsed offset of the sample rendered as a time of day.
func (s RawSample) Clock() Clock {
	return ClockFromSeconds(s.ElapsedSeconds)
}

// ResampledPoint is one fixed-width bucket of a resampled recording.
type ResampledPoint struct {
	Index       int64         `json:"index"`                 // bucket index, floor(elapsed / width)
	Elapsed     time.Duration `json:"-"`                     // bucket start as elapsed time, never wraps
	TimeOfDay   Clock         `json:"time"`                  // bucket start as a clock, wraps at 24h
	MeanRateBpm *float64      `json:"meanRateBpm"`           // nil when the bucket holds no samples
	Zone        Zone          `json:"zone"`                  // ZoneNone when MeanRateBpm is nil
	Count       int           `json:"sampleCount,omitempty"` // raw samples averaged into the bucket
}

// HasData reports whether at least one raw sample fell into the bucket.
func (p ResampledPoint) HasData() bool {
	return p.MeanRateBpm != nil
}

func (p ResampledPoint) MarshalJSON() ([]byte, error) {
	type alias ResampledPoint
	return json.Marshal(struct {
		alias
		ElapsedSeconds float64 `json:"elapsedSeconds"`
	}{
		alias:          alias(p),
		ElapsedSeconds: p.Elapsed.Seconds(),
	})
}

// Metrics are the display values of a recording, computed from raw samples.
type Metrics struct {
	StartDatetime string `json:"start_datetime"` // YYYY-MM-DD HH:MM:SS of the first sample
	Duration      string `json:"duration"`       // HH:MM:SS elapsed at the last sample
	MinBpm        string `json:"min_bpm"`
	MaxBpm        string `json:"max_bpm"`
	AvgBpm        string `json:"avg_bpm"`
}

// Map returns the metrics as plain key to string values.
func (m Metrics) Map() map[string]string {
	return map[string]string{
		"start_datetime": m.StartDatetime,
		"duration":       m.Duration,
		"min_bpm":        m.MinBpm,
		"max_bpm":        m.MaxBpm,
		"avg_bpm":        m.AvgBpm,
	}
}
