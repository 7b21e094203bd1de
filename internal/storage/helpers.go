package storage

import (
	"database/sql"
	"errors"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toRecordingData(r Recording) *recordingData {
	return &recordingData{
		Source:      r.Source,
		CreatedAt:   r.CreatedAt.UTC(),
		StartTime:   r.StartTime.UTC(),
		Duration:    r.Duration,
		BucketWidth: r.BucketWidthSeconds,
		SampleCount: r.SampleCount,
		MinBpm:      r.MinBpm,
		MaxBpm:      r.MaxBpm,
		AvgBpm:      r.AvgBpm,
	}
}

func fromRecordingData(d *recordingData) *Recording {
	return &Recording{
		ID:                 d.ID,
		Source:             d.Source,
		CreatedAt:          d.CreatedAt.UTC(),
		StartTime:          d.StartTime.UTC(),
		Duration:           d.Duration,
		BucketWidthSeconds: d.BucketWidth,
		SampleCount:        d.SampleCount,
		MinBpm:             d.MinBpm,
		MaxBpm:             d.MaxBpm,
		AvgBpm:             d.AvgBpm,
	}
}

func toBucketData(recordingID int64, p respiration.ResampledPoint) *bucketData {
	var mean sql.NullFloat64
	if p.MeanRateBpm != nil {
		mean.Float64 = *p.MeanRateBpm
		mean.Valid = true
	}

	var zone sql.NullInt64
	if p.Zone.Valid() {
		zone.Int64 = int64(p.Zone)
		zone.Valid = true
	}

	return &bucketData{
		RecordingID:    recordingID,
		Index:          p.Index,
		ElapsedSeconds: p.Elapsed.Seconds(),
		TimeOfDay:      p.TimeOfDay.String(),
		MeanRateBpm:    mean,
		Zone:           zone,
		SampleCount:    p.Count,
	}
}

func fromBucketData(d *bucketData) Bucket {
	b := Bucket{
		RecordingID:    d.RecordingID,
		Index:          d.Index,
		ElapsedSeconds: d.ElapsedSeconds,
		TimeOfDay:      d.TimeOfDay,
		SampleCount:    d.SampleCount,
	}
	if d.MeanRateBpm.Valid {
		mean := d.MeanRateBpm.Float64
		b.MeanRateBpm = &mean
	}
	if d.Zone.Valid {
		b.Zone = respiration.Zone(d.Zone.Int64)
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var d recordingData
	err := row.Scan(&d.ID, &d.Source, &d.CreatedAt, &d.StartTime, &d.Duration,
		&d.BucketWidth, &d.SampleCount, &d.MinBpm, &d.MaxBpm, &d.AvgBpm)
	if err != nil {
		return nil, err
	}
	return fromRecordingData(&d), nil
}

func scanBucket(row rowScanner) (Bucket, error) {
	var d bucketData
	err := row.Scan(&d.RecordingID, &d.Index, &d.ElapsedSeconds, &d.TimeOfDay,
		&d.MeanRateBpm, &d.Zone, &d.SampleCount)
	if err != nil {
		return Bucket{}, err
	}
	return fromBucketData(&d), nil
}
