package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ExportPath returns a new database path inside dir named
// recording_<UTC timestamp>_<uuid>.sqlite. dir must exist.
func ExportPath(dir string) (string, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("export directory '%s' does not exist: %w", dir, err)
		}
		return "", fmt.Errorf("checking export directory '%s': %w", dir, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("invalid export directory '%s'", dir)
	}

	name := fmt.Sprintf("recording_%s_%s.sqlite", time.Now().UTC().Format("20060102_150405"), uuid.NewString())
	return filepath.Join(dir, name), nil
}
