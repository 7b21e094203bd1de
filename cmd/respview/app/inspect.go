package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/roman-kulish/respiration-monitor/internal/storage"
)

// inspect prints a stored recording followed by its buckets, one JSON object
// per line.
func inspect(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.InspectDB); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.InspectDB, err)
	}

	store := storage.NewSqliteStore(config.InspectDB)
	defer store.Close()

	var opts []storage.ReaderOption
	var filters []any
	if config.Zone != nil {
		opts = append(opts, storage.WithZone(*config.Zone))
		filters = append(filters, slog.String("zone", config.Zone.Label()))
	}

	logger.Debug("reader configuration", filters...)

	reader, err := store.ReadBuckets(ctx, config.RecordingID, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()

	enc := json.NewEncoder(config.Out)
	if err = enc.Encode(reader.Recording()); err != nil {
		return err
	}

	var n int
	for reader.Next(ctx) {
		if err = enc.Encode(reader.Current()); err != nil {
			return err
		}
		n++
	}
	if err = reader.Error(); err != nil {
		return err
	}

	logger.Info("finished reading buckets",
		slog.Int64("recordingID", config.RecordingID),
		slog.Int("buckets", n),
	)
	return nil
}
