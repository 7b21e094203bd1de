package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// Store provides an interface for exporting processed recordings. A recording
// and all of its buckets are written atomically.
type Store interface {
	// SaveRecording stores the recording summary and its resampled buckets in
	// a single transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - r: Recording summary; ID is ignored and assigned by the store
	//   - points: Resampled series, including empty buckets
	//
	// Returns:
	//   - recordingID: Unique identifier of the stored recording
	//   - error: If storage fails or context is cancelled
	SaveRecording(ctx context.Context, r Recording, points []respiration.ResampledPoint) (recordingID int64, err error)

	// Recording retrieves a stored recording by its ID.
	Recording(ctx context.Context, id int64) (*Recording, error)

	// Recordings returns all stored recordings in insertion order.
	Recordings(ctx context.Context) ([]*Recording, error)

	// Buckets returns all buckets of a recording ordered by bucket index.
	Buckets(ctx context.Context, recordingID int64) ([]Bucket, error)

	// Close releases all database connections and resources. It is safe to
	// call Close multiple times.
	Close() error
}
