package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// Column names of the device export. The temperature and signal period
// columns the device also writes are never read.
const (
	ColumnDateTime    = "dateTime"           // epoch milliseconds
	ColumnTimeSeconds = "timeSeconds"        // seconds since recording start
	ColumnRate        = "signalFrequencyBpm" // respiration rate
)

var requiredColumns = []string{ColumnDateTime, ColumnTimeSeconds, ColumnRate}

// headerLine is the physical line of the header row; line 1 holds device
// metadata and is discarded.
const headerLine = 2

type columnIndex struct {
	dateTime, timeSeconds, rate int
}

// ReadSamples parses a device export. The first physical line is device
// metadata and is skipped without inspection, the second is the header row and
// everything after it is data. Blank lines are ignored.
func ReadSamples(r io.Reader) ([]respiration.RawSample, error) {
	br := bufio.NewReader(r)

	if _, err := br.ReadString('\n'); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, respiration.NewMalformedInputError(headerLine, "", "missing header row", nil)
		}
		return nil, fmt.Errorf("reading device metadata: %w", err)
	}

	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, respiration.NewMalformedInputError(headerLine, "", "missing header row", nil)
		}
		return nil, csvError(err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var samples []respiration.RawSample
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		line, _ := cr.FieldPos(0)
		sample, err := parseRecord(record, cols, line+1)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, respiration.NewEmptyRecordingError("csv")
	}
	return samples, nil
}

func resolveColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := positions[name]; !ok {
			positions[name] = i
		}
	}

	for _, name := range requiredColumns {
		if _, ok := positions[name]; !ok {
			return columnIndex{}, respiration.NewMalformedInputError(headerLine, name, "required column is missing", nil)
		}
	}

	return columnIndex{
		dateTime:    positions[ColumnDateTime],
		timeSeconds: positions[ColumnTimeSeconds],
		rate:        positions[ColumnRate],
	}, nil
}

func parseRecord(record []string, cols columnIndex, line int) (sample respiration.RawSample, err error) {
	if sample.EpochMillis, err = parseEpochMillis(record[cols.dateTime]); err != nil {
		return sample, respiration.NewMalformedInputError(line, ColumnDateTime, "invalid timestamp", err)
	}
	if sample.ElapsedSeconds, err = parseFloat(record[cols.timeSeconds]); err != nil {
		return sample, respiration.NewMalformedInputError(line, ColumnTimeSeconds, "invalid number", err)
	}
	if sample.ElapsedSeconds < 0 {
		return sample, respiration.NewMalformedInputError(line, ColumnTimeSeconds, "elapsed seconds must not be negative", nil)
	}
	if sample.RateBpm, err = parseFloat(record[cols.rate]); err != nil {
		return sample, respiration.NewMalformedInputError(line, ColumnRate, "invalid number", err)
	}
	return sample, nil
}

func parseEpochMillis(cell string) (int64, error) {
	cell = strings.TrimSpace(cell)
	if ms, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return ms, nil
	}

	// Some exports write the timestamp in float notation, e.g. 1.689251400123e+12.
	f, err := parseFloat(cell)
	if err != nil {
		return 0, err
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("timestamp out of range: %s", cell)
	}
	return int64(math.Round(f)), nil
}

func parseFloat(cell string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", cell)
	}
	return f, nil
}

func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return respiration.NewMalformedInputError(parseErr.Line+1, "", "unreadable row", parseErr.Err)
	}
	return fmt.Errorf("reading csv: %w", err)
}
