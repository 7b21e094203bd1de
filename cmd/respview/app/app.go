package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/dashboard"
	"github.com/roman-kulish/respiration-monitor/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if config.InspectDB != "" {
		return inspect(ctx, config, logger)
	}
	return process(ctx, config, logger)
}

func process(ctx context.Context, config *Config, logger *slog.Logger) error {
	processor, err := dashboard.NewProcessor(config.Settings, logger)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	in, err := os.Open(config.InputFile)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer in.Close()

	analysis, err := processor.Analyze(filepath.Base(config.InputFile), in)
	if err != nil {
		return fmt.Errorf("processing '%s': %w", config.InputFile, err)
	}

	var images map[string]chart.Artifact
	if !config.NoCharts {
		if images, err = render(processor, analysis, config, logger); err != nil {
			return err
		}
	}

	if config.ExportDir != "" {
		if err = export(ctx, analysis, config.ExportDir, logger); err != nil {
			return err
		}
	}

	if config.JSON {
		enc := json.NewEncoder(config.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis.Report(images))
	}
	return printReport(config, analysis, images)
}

func render(processor *dashboard.Processor, analysis *dashboard.Analysis, config *Config, logger *slog.Logger) (map[string]chart.Artifact, error) {
	delivery, err := config.Settings.Charts.DeliveryMode()
	if err != nil {
		return nil, err
	}

	sink, err := chart.NewSink(delivery, config.Settings.Charts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating chart sink: %w", err)
	}
	if dir, ok := sink.(*chart.DirSink); ok {
		logger.Info("writing charts", slog.String("destination", dir.Dir()))
	}

	return processor.Render(analysis, sink)
}

func export(ctx context.Context, analysis *dashboard.Analysis, dir string, logger *slog.Logger) (err error) {
	path, err := storage.ExportPath(dir)
	if err != nil {
		return err
	}

	store := storage.NewSqliteStore(path)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing export: %w", cErr)
		}
	}()

	id, err := store.SaveRecording(ctx, analysis.Recording(), analysis.Points)
	if err != nil {
		return fmt.Errorf("exporting recording: %w", err)
	}

	logger.Info("recording exported",
		slog.String("path", path),
		slog.Int64("recordingID", id),
		slog.Int("buckets", len(analysis.Points)),
	)
	return nil
}

func printReport(config *Config, analysis *dashboard.Analysis, images map[string]chart.Artifact) error {
	metrics := analysis.Metrics.Map()
	keys := []string{"start_datetime", "duration", "min_bpm", "max_bpm", "avg_bpm"}

	if _, err := fmt.Fprintf(config.Out, "%s\n", analysis.Source); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(config.Out, "  %-15s %s\n", k, metrics[k]); err != nil {
			return err
		}
	}

	for _, zc := range analysis.Payload.ZoneCounts() {
		if _, err := fmt.Fprintf(config.Out, "  %-15s %d buckets\n", zc.Label, zc.Count); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		location := images[name].Path
		if location == "" {
			location = fmt.Sprintf("inline, %d bytes", images[name].Size)
		}
		if _, err := fmt.Fprintf(config.Out, "  %-15s %s\n", name+" chart", location); err != nil {
			return err
		}
	}
	return nil
}
