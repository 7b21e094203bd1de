package storage

import (
	"database/sql"
	"time"
)

type recordingData struct {
	ID          int64
	Source      string
	CreatedAt   time.Time
	StartTime   time.Time
	Duration    string
	BucketWidth int
	SampleCount int
	MinBpm      float64
	MaxBpm      float64
	AvgBpm      float64
}

type bucketData struct {
	RecordingID    int64
	Index          int64
	ElapsedSeconds float64
	TimeOfDay      string
	MeanRateBpm    sql.NullFloat64
	Zone           sql.NullInt64
	SampleCount    int
}
