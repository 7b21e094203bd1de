package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

func testSeries(t *testing.T, n int) []respiration.ResampledPoint {
	t.Helper()

	samples := make([]respiration.RawSample, 0, n)
	for i := 0; i < n; i++ {
		if i%7 == 3 {
			continue // leaves an empty bucket every 7th slot
		}
		e := float64(i * 5)
		samples = append(samples, respiration.RawSample{
			EpochMillis:    1_689_251_400_000 + int64(e*1000),
			ElapsedSeconds: e,
			RateBpm:        10 + float64(i%40),
		})
	}

	points, err := respiration.Resample(samples, 5, respiration.DefaultThresholds)
	require.NoError(t, err)
	return points
}

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "export.sqlite"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	points := testSeries(t, 1200) // more than one insert batch

	start := time.Date(2023, 7, 13, 12, 30, 0, 0, time.UTC)
	rec := Recording{
		Source:             "session.csv",
		CreatedAt:          time.Now().UTC().Truncate(time.Second),
		StartTime:          start,
		Duration:           "01:39:55",
		BucketWidthSeconds: 5,
		SampleCount:        1029,
		MinBpm:             10,
		MaxBpm:             49,
		AvgBpm:             29.25,
	}

	id, err := s.SaveRecording(ctx, rec, points)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Recording(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "session.csv", got.Source)
	assert.True(t, start.Equal(got.StartTime), "start %s", got.StartTime)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "01:39:55", got.Duration)
	assert.Equal(t, 1029, got.SampleCount)
	assert.Equal(t, 29.25, got.AvgBpm)

	buckets, err := s.Buckets(ctx, id)
	require.NoError(t, err)
	require.Len(t, buckets, len(points))

	for i, b := range buckets {
		p := points[i]
		assert.Equal(t, p.Index, b.Index)
		assert.Equal(t, p.TimeOfDay.String(), b.TimeOfDay)
		assert.Equal(t, p.Zone, b.Zone)
		assert.Equal(t, p.Count, b.SampleCount)
		if p.MeanRateBpm == nil {
			assert.Nil(t, b.MeanRateBpm, "bucket %d", i)
		} else {
			require.NotNil(t, b.MeanRateBpm, "bucket %d", i)
			assert.InDelta(t, *p.MeanRateBpm, *b.MeanRateBpm, 1e-9)
		}
	}
	assert.Nil(t, buckets[3].MeanRateBpm)
	assert.Equal(t, respiration.ZoneNone, buckets[3].Zone)
}

func TestSqliteStore_Recordings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	points := testSeries(t, 10)

	for _, src := range []string{"a.csv", "b.csv"} {
		_, err := s.SaveRecording(ctx, Recording{Source: src, Duration: "00:00:45"}, points)
		require.NoError(t, err)
	}

	recordings, err := s.Recordings(ctx)
	require.NoError(t, err)
	require.Len(t, recordings, 2)
	assert.Equal(t, "a.csv", recordings[0].Source)
	assert.Equal(t, "b.csv", recordings[1].Source)
}

func TestSqliteStore_RecordingNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.SaveRecording(ctx, Recording{Source: "a.csv"}, nil)
	require.NoError(t, err)

	_, err = s.Recording(ctx, 42)
	assert.ErrorIs(t, err, ErrRecordingNotFound)

	_, err = s.Buckets(ctx, 42)
	assert.ErrorIs(t, err, ErrRecordingNotFound)
}

func TestBucketReader_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	points := testSeries(t, 100)

	id, err := s.SaveRecording(ctx, Recording{Source: "f.csv"}, points)
	require.NoError(t, err)

	count := func(opts ...ReaderOption) int {
		t.Helper()
		r, err := s.ReadBuckets(ctx, id, opts...)
		require.NoError(t, err)
		defer func() { require.NoError(t, r.Close()) }()

		assert.Equal(t, "f.csv", r.Recording().Source)

		n := 0
		for r.Next(ctx) {
			n++
		}
		require.NoError(t, r.Error())
		return n
	}

	var withData, low, none int
	for _, p := range points {
		if p.HasData() {
			withData++
		}
		switch p.Zone {
		case respiration.ZoneLow:
			low++
		case respiration.ZoneNone:
			none++
		}
	}

	assert.Equal(t, len(points), count())
	assert.Equal(t, withData, count(WithDataOnly()))
	assert.Equal(t, low, count(WithZone(respiration.ZoneLow)))
	assert.Equal(t, none, count(WithZone(respiration.ZoneNone)))
	assert.Equal(t, 11, count(WithIndexRange(10, 20)))

	_, err = s.ReadBuckets(ctx, id, WithIndexRange(5, 1))
	assert.ErrorContains(t, err, "invalid index range")
}

func TestBucketReader_ContextCancelled(t *testing.T) {
	s := newTestStore(t)
	id, err := s.SaveRecording(context.Background(), Recording{Source: "c.csv"}, testSeries(t, 20))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r, err := s.ReadBuckets(ctx, id)
	require.NoError(t, err)
	defer r.Close()

	cancel()
	assert.False(t, r.Next(ctx))
	assert.ErrorIs(t, r.Error(), context.Canceled)
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "x.sqlite"))
	_, err := s.SaveRecording(context.Background(), Recording{Source: "x.csv"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestExportPath(t *testing.T) {
	dir := t.TempDir()

	a, err := ExportPath(dir)
	require.NoError(t, err)
	b, err := ExportPath(dir)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, dir, filepath.Dir(a))
	assert.Regexp(t, regexp.MustCompile(`^recording_\d{8}_\d{6}_[0-9a-f-]{36}\.sqlite$`), filepath.Base(a))

	_, err = ExportPath(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = ExportPath(file)
	assert.ErrorContains(t, err, "invalid export directory")
}

func TestNewRecording(t *testing.T) {
	samples := []respiration.RawSample{
		{EpochMillis: 1_689_251_400_123, ElapsedSeconds: 0, RateBpm: 12},
		{EpochMillis: 1_689_251_410_123, ElapsedSeconds: 3725, RateBpm: 14.9},
	}
	summary, err := respiration.Summarize(samples)
	require.NoError(t, err)

	r := NewRecording("s.csv", summary, 10)
	assert.Equal(t, "01:02:05", r.Duration)
	assert.Equal(t, 2, r.SampleCount)
	assert.Equal(t, 10, r.BucketWidthSeconds)
	assert.Equal(t, 14.9, r.MaxBpm)
}
