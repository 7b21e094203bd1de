package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// bucketsPerInsert keeps a batch insert well below SQLite's bound parameter
// limit.
const bucketsPerInsert = 500

// ErrRecordingNotFound is returned when no recording has the requested ID.
var ErrRecordingNotFound = errors.New("recording not found")

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite file at dbPath. The
// file and schema are created on the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

// Path returns the database file path.
func (s *SqliteStore) Path() string {
	return s.dbPath
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) SaveRecording(ctx context.Context, r Recording, points []respiration.ResampledPoint) (recordingID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	data := toRecordingData(r)
	result, err := tx.ExecContext(
		ctx,
		insertRecordingSQL,
		data.Source,
		data.CreatedAt,
		data.StartTime,
		data.Duration,
		data.BucketWidth,
		data.SampleCount,
		data.MinBpm,
		data.MaxBpm,
		data.AvgBpm,
	)
	if err != nil {
		err = fmt.Errorf("inserting recording: %w", err)
		return
	}

	if recordingID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting recording ID: %w", err)
		return
	}

	for start := 0; start < len(points); start += bucketsPerInsert {
		end := min(start+bucketsPerInsert, len(points))
		if err = insertBuckets(ctx, tx, recordingID, points[start:end]); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return recordingID, nil
}

func insertBuckets(ctx context.Context, tx *sql.Tx, recordingID int64, points []respiration.ResampledPoint) error {
	values := make([]interface{}, 0, len(points)*7)

	var sb strings.Builder
	sb.WriteString(insertBucketsSQL)

	for i, p := range points {
		data := toBucketData(recordingID, p)
		values = append(values,
			data.RecordingID,
			data.Index,
			data.ElapsedSeconds,
			data.TimeOfDay,
			data.MeanRateBpm,
			data.Zone,
			data.SampleCount,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(bucketValuesPlaceholder)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting buckets: %w", err)
	}
	return nil
}

func (s *SqliteStore) Recording(ctx context.Context, id int64) (recording *Recording, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return queryRecording(ctx, db, id)
}

func queryRecording(ctx context.Context, db *sql.DB, id int64) (recording *Recording, err error) {
	stmt, err := db.PrepareContext(ctx, selectRecordingSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	recording, err = scanRecording(stmt.QueryRowContext(ctx, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = fmt.Errorf("recording %d: %w", id, ErrRecordingNotFound)
	case err != nil:
		err = fmt.Errorf("scanning recording: %w", err)
	}
	return
}

func (s *SqliteStore) Recordings(ctx context.Context) (recordings []*Recording, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRecordingsSQL)
	if err != nil {
		err = fmt.Errorf("querying recordings: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r *Recording
		if r, err = scanRecording(rows); err != nil {
			err = fmt.Errorf("scanning recording: %w", err)
			return
		}
		recordings = append(recordings, r)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Buckets(ctx context.Context, recordingID int64) (buckets []Bucket, err error) {
	reader, err := s.ReadBuckets(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	defer closeWithError(reader, &err)

	for reader.Next(ctx) {
		buckets = append(buckets, reader.Current())
	}
	err = reader.Error()
	return
}

// ReadBuckets creates a BucketReader over the buckets of a stored recording,
// optionally filtered with WithZone, WithIndexRange or WithDataOnly.
//
// The returned reader must be closed after use to release database resources.
func (s *SqliteStore) ReadBuckets(ctx context.Context, recordingID int64, opts ...ReaderOption) (*BucketReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newBucketReader(ctx, db, recordingID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)
			// folds the WAL back so the export is a single file
			_ = runSQLCommand(s.writeDB, finalizeJournalSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
