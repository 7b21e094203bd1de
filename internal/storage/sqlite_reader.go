package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// ReaderOption configures a BucketReader with filtering criteria.
type ReaderOption func(*BucketReader)

// WithZone keeps only buckets classified into z. ZoneNone selects the buckets
// without a zone.
func WithZone(z respiration.Zone) ReaderOption {
	return func(r *BucketReader) {
		r.zone = &z
	}
}

// WithIndexRange keeps buckets with from <= index <= to.
func WithIndexRange(from, to int64) ReaderOption {
	return func(r *BucketReader) {
		r.fromIndex = &from
		r.toIndex = &to
	}
}

// WithDataOnly skips buckets that had no samples.
func WithDataOnly() ReaderOption {
	return func(r *BucketReader) {
		r.dataOnly = true
	}
}

// BucketReader iterates over the stored buckets of one recording in index
// order. A reader must only be used from a single goroutine.
type BucketReader struct {
	db *sql.DB

	recordingID int64
	recording   *Recording

	zone      *respiration.Zone
	fromIndex *int64
	toIndex   *int64
	dataOnly  bool

	query string
	args  []any

	rows    *sql.Rows
	current Bucket
	err     error
}

func newBucketReader(ctx context.Context, db *sql.DB, recordingID int64, opts ...ReaderOption) (*BucketReader, error) {
	br := &BucketReader{
		db:          db,
		recordingID: recordingID,
	}
	for _, opt := range opts {
		opt(br)
	}
	if err := br.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return br, nil
}

func (br *BucketReader) init(ctx context.Context) error {
	if br.db == nil {
		return errors.New("database connection required")
	}
	if br.recordingID <= 0 {
		return errors.New("recording ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading recording", fn: br.loadRecording},
		{msg: "initializing filters", fn: br.initFilters},
		{msg: "initializing query", fn: br.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (br *BucketReader) loadRecording(ctx context.Context) (err error) {
	br.recording, err = queryRecording(ctx, br.db, br.recordingID)
	return
}

func (br *BucketReader) initFilters(context.Context) error {
	var sb strings.Builder
	sb.WriteString(selectBucketsSQL)
	br.args = []any{br.recordingID}

	if br.fromIndex != nil && br.toIndex != nil {
		if *br.fromIndex > *br.toIndex {
			return fmt.Errorf("invalid index range: %d > %d", *br.fromIndex, *br.toIndex)
		}
		sb.WriteString("\n    AND bucket_index BETWEEN ? AND ?")
		br.args = append(br.args, *br.fromIndex, *br.toIndex)
	}

	if br.zone != nil {
		if br.zone.Valid() {
			sb.WriteString("\n    AND zone = ?")
			br.args = append(br.args, int64(*br.zone))
		} else {
			sb.WriteString("\n    AND zone IS NULL")
		}
	}

	if br.dataOnly {
		sb.WriteString("\n    AND mean_rate_bpm IS NOT NULL")
	}

	sb.WriteString("\nORDER BY bucket_index")
	br.query = sb.String()
	return nil
}

func (br *BucketReader) initQuery(ctx context.Context) (err error) {
	br.rows, err = br.db.QueryContext(ctx, br.query, br.args...)
	if err != nil {
		return fmt.Errorf("querying buckets: %w", err)
	}
	return nil
}

// Recording returns the recording this reader is accessing.
func (br *BucketReader) Recording() *Recording {
	return br.recording
}

// Next advances to the next bucket. It returns false at the end of the data,
// on error or when ctx is done; check Error to tell them apart.
func (br *BucketReader) Next(ctx context.Context) bool {
	if br.err != nil || br.rows == nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		br.err = err
		return false
	}

	if !br.rows.Next() {
		br.err = br.rows.Err()
		return false
	}

	if br.current, br.err = scanBucket(br.rows); br.err != nil {
		br.err = fmt.Errorf("scanning bucket: %w", br.err)
		return false
	}
	return true
}

// Current returns the bucket read by the last successful Next.
func (br *BucketReader) Current() Bucket {
	return br.current
}

// Error returns the error that stopped the iteration, if any.
func (br *BucketReader) Error() error {
	return br.err
}

// Close releases the underlying rows.
func (br *BucketReader) Close() error {
	if br.rows == nil {
		return nil
	}
	err := br.rows.Close()
	br.rows = nil
	return err
}
