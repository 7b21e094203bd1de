package storage

import (
	"time"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// Recording is one exported recording: where it came from and its summary.
type Recording struct {
	ID                 int64     `json:"id"`
	Source             string    `json:"source"`
	CreatedAt          time.Time `json:"createdAt"`
	StartTime          time.Time `json:"startTime"`
	Duration           string    `json:"duration"` // elapsed-as-clock, HH:MM:SS
	BucketWidthSeconds int       `json:"bucketWidthSeconds"`
	SampleCount        int       `json:"sampleCount"`
	MinBpm             float64   `json:"minBpm"`
	MaxBpm             float64   `json:"maxBpm"`
	AvgBpm             float64   `json:"avgBpm"`
}

// NewRecording builds the recording row of a summarised recording.
func NewRecording(source string, s respiration.Summary, bucketWidthSeconds int) Recording {
	return Recording{
		Source:             source,
		CreatedAt:          time.Now().UTC(),
		StartTime:          s.Start,
		Duration:           s.Duration.String(),
		BucketWidthSeconds: bucketWidthSeconds,
		SampleCount:        s.Count,
		MinBpm:             s.MinBpm,
		MaxBpm:             s.MaxBpm,
		AvgBpm:             s.AvgBpm,
	}
}

// Bucket is one stored resampled bucket. MeanRateBpm is nil and Zone is
// ZoneNone for a bucket without samples.
type Bucket struct {
	RecordingID    int64            `json:"recordingId"`
	Index          int64            `json:"index"`
	ElapsedSeconds float64          `json:"elapsedSeconds"`
	TimeOfDay      string           `json:"time"`
	MeanRateBpm    *float64         `json:"meanRateBpm"`
	Zone           respiration.Zone `json:"zone"`
	SampleCount    int              `json:"sampleCount"`
}
