package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS recordings (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    source       TEXT      NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    start_time   TIMESTAMP NOT NULL,
    duration     TEXT      NOT NULL,
    bucket_width INTEGER   NOT NULL,
    sample_count INTEGER   NOT NULL,
    min_bpm      REAL      NOT NULL,
    max_bpm      REAL      NOT NULL,
    avg_bpm      REAL      NOT NULL
);

CREATE TABLE IF NOT EXISTS buckets (
    recording_id    INTEGER NOT NULL REFERENCES recordings (id),
    bucket_index    INTEGER NOT NULL,
    elapsed_seconds REAL    NOT NULL,
    time_of_day     TEXT    NOT NULL,
    mean_rate_bpm   REAL,
    zone            INTEGER,
    sample_count    INTEGER NOT NULL,
    PRIMARY KEY (recording_id, bucket_index)
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_buckets_zone ON buckets (recording_id, zone);`

	finalizeJournalSQL = `PRAGMA journal_mode = DELETE`

	insertRecordingSQL = `
INSERT INTO recordings (source,
                        created_at,
                        start_time,
                        duration,
                        bucket_width,
                        sample_count,
                        min_bpm,
                        max_bpm,
                        avg_bpm)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecordingSQL = `
SELECT
    id,
    source,
    created_at,
    start_time,
    duration,
    bucket_width,
    sample_count,
    min_bpm,
    max_bpm,
    avg_bpm
FROM recordings
WHERE
    id = ?`

	selectRecordingsSQL = `
SELECT
    id,
    source,
    created_at,
    start_time,
    duration,
    bucket_width,
    sample_count,
    min_bpm,
    max_bpm,
    avg_bpm
FROM recordings
ORDER BY id`

	insertBucketsSQL = `
INSERT INTO buckets (recording_id,
                     bucket_index,
                     elapsed_seconds,
                     time_of_day,
                     mean_rate_bpm,
                     zone,
                     sample_count)
VALUES `

	bucketValuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?)"

	selectBucketsSQL = `
SELECT
    recording_id,
    bucket_index,
    elapsed_seconds,
    time_of_day,
    mean_rate_bpm,
    zone,
    sample_count
FROM buckets
WHERE
    recording_id = ?`
)
