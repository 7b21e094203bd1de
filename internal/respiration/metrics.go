package respiration

import (
	"math"
	"strconv"
	"time"
)

// Summary holds the numeric values behind Metrics.
type Summary struct {
	Start    time.Time
	Elapsed  float64 // elapsed seconds of the last sample
	Count    int
	MinBpm   float64
	MaxBpm   float64
	AvgBpm   float64
	Duration Clock
}

// Metrics formats the summary for display.
func (s Summary) Metrics() Metrics {
	return Metrics{
		StartDatetime: s.Start.Format(time.DateTime),
		Duration:      s.Duration.String(),
		MinBpm:        formatBpm(s.MinBpm),
		MaxBpm:        formatBpm(s.MaxBpm),
		AvgBpm:        formatBpm(s.AvgBpm),
	}
}

// Summarize computes summary statistics over raw samples. The duration is the
// elapsed time of the last sample by position; samples are expected in
// non-decreasing elapsed order and out-of-order input is not corrected.
func Summarize(samples []RawSample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, NewEmptyRecordingError("metrics")
	}

	last := samples[len(samples)-1]
	s := Summary{
		Start:    samples[0].Timestamp(),
		Elapsed:  last.ElapsedSeconds,
		Count:    len(samples),
		MinBpm:   math.Inf(1),
		MaxBpm:   math.Inf(-1),
		Duration: last.Clock(),
	}

	var sum float64
	for _, sample := range samples {
		s.MinBpm = math.Min(s.MinBpm, sample.RateBpm)
		s.MaxBpm = math.Max(s.MaxBpm, sample.RateBpm)
		sum += sample.RateBpm
	}
	s.AvgBpm = sum / float64(len(samples))

	return s, nil
}

// ComputeMetrics returns the display metrics of a recording.
func ComputeMetrics(samples []RawSample) (Metrics, error) {
	s, err := Summarize(samples)
	if err != nil {
		return Metrics{}, err
	}
	return s.Metrics(), nil
}

func formatBpm(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
