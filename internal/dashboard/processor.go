// Package dashboard runs the single recording pipeline shared by the command
// line tool and the HTTP dashboard: CSV samples are resampled and summarised,
// shaped into a chart payload and optionally rendered.
package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/config"
	"github.com/roman-kulish/respiration-monitor/internal/ingest"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
	"github.com/roman-kulish/respiration-monitor/internal/storage"
)

const (
	ChartLine      = "line"
	ChartHistogram = "histogram"
	ChartPie       = "pie"
	ChartSummary   = "summary"
)

// Analysis is the result of processing one recording.
type Analysis struct {
	Source  string
	Samples int
	Summary respiration.Summary
	Metrics respiration.Metrics
	Points  []respiration.ResampledPoint
	Payload chart.Payload
}

// EmptyBuckets counts buckets that received no samples.
func (a *Analysis) EmptyBuckets() int {
	var n int
	for _, p := range a.Points {
		if !p.HasData() {
			n++
		}
	}
	return n
}

// Recording returns the export row of the analysis.
func (a *Analysis) Recording() storage.Recording {
	return storage.NewRecording(a.Source, a.Summary, a.Payload.BucketWidthSeconds)
}

// Report is the JSON view of an analysis and its rendered charts.
type Report struct {
	Source  string                    `json:"source"`
	Samples int                       `json:"samples"`
	Metrics respiration.Metrics       `json:"metrics"`
	Chart   chart.Payload             `json:"chart"`
	Images  map[string]chart.Artifact `json:"images,omitempty"`
}

// Report combines the analysis with rendered images, which may be nil.
func (a *Analysis) Report(images map[string]chart.Artifact) Report {
	return Report{
		Source:  a.Source,
		Samples: a.Samples,
		Metrics: a.Metrics,
		Chart:   a.Payload,
		Images:  images,
	}
}

// Processor holds the validated pipeline configuration. It keeps no
// per-request state, so one Processor serves concurrent requests.
type Processor struct {
	resampler *respiration.Resampler
	renderer  *chart.Renderer
	palette   chart.Palette
	logger    *slog.Logger
}

// NewProcessor validates config and builds the pipeline stages.
func NewProcessor(config *config.Config, logger *slog.Logger) (*Processor, error) {
	thresholds, err := config.Analysis.ZoneThresholds()
	if err != nil {
		return nil, err
	}

	resampler, err := respiration.NewResampler(config.Analysis.BucketWidthSeconds, thresholds,
		respiration.WithMaxBuckets(config.Analysis.MaxBuckets))
	if err != nil {
		return nil, err
	}

	renderConfig, err := config.Charts.RenderConfig()
	if err != nil {
		return nil, err
	}

	renderer, err := chart.NewRenderer(renderConfig)
	if err != nil {
		return nil, fmt.Errorf("creating chart renderer: %w", err)
	}

	return &Processor{
		resampler: resampler,
		renderer:  renderer,
		palette:   renderConfig.Palette,
		logger:    logger,
	}, nil
}

// Format returns the image format charts are rendered in.
func (p *Processor) Format() chart.ImageFormat {
	return p.renderer.Format()
}

// Analyze reads a CSV export and computes the resampled series, the metrics
// and the chart payload. Nothing is rendered.
func (p *Processor) Analyze(source string, r io.Reader) (*Analysis, error) {
	started := time.Now()

	samples, err := ingest.ReadSamples(r)
	if err != nil {
		return nil, err
	}

	points, err := p.resampler.Resample(samples)
	if err != nil {
		return nil, err
	}

	summary, err := respiration.Summarize(samples)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Source:  source,
		Samples: len(samples),
		Summary: summary,
		Metrics: summary.Metrics(),
		Points:  points,
		Payload: chart.Produce(points, p.resampler.BucketWidth(), p.resampler.Classifier().Thresholds(), p.palette),
	}

	p.logger.Info("recording analysed",
		slog.String("source", source),
		slog.Group("stats",
			slog.String("samples", humanize.Comma(int64(a.Samples))),
			slog.String("buckets", humanize.Comma(int64(len(points)))),
			slog.String("emptyBuckets", humanize.Comma(int64(a.EmptyBuckets()))),
			slog.String("start", a.Metrics.StartDatetime),
			slog.String("duration", a.Metrics.Duration),
			slog.String("avgBpm", a.Metrics.AvgBpm),
		),
		slog.Duration("took", time.Since(started)),
	)

	return a, nil
}

// Render draws every chart of the analysis and hands it to sink. A chart with
// nothing to plot is skipped.
func (p *Processor) Render(a *Analysis, sink chart.Sink) (map[string]chart.Artifact, error) {
	ops := []struct {
		name string
		fn   func() ([]byte, error)
	}{
		{ChartLine, func() ([]byte, error) { return p.renderer.Line(a.Payload) }},
		{ChartHistogram, func() ([]byte, error) { return p.renderer.Histogram(a.Payload) }},
		{ChartPie, func() ([]byte, error) { return p.renderer.Pie(a.Payload) }},
		{ChartSummary, func() ([]byte, error) { return p.renderer.Summary(a.Metrics, a.Samples, a.Payload) }},
	}

	artifacts := make(map[string]chart.Artifact, len(ops))
	var total int
	for _, op := range ops {
		data, err := op.fn()
		if errors.Is(err, chart.ErrNothingToPlot) {
			p.logger.Debug("chart skipped", slog.String("chart", op.name), slog.String("source", a.Source))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rendering %s chart: %w", op.name, err)
		}

		artifact, err := sink.Put(op.name, p.renderer.Format(), data)
		if err != nil {
			return nil, fmt.Errorf("delivering %s chart: %w", op.name, err)
		}
		artifacts[op.name] = artifact
		total += artifact.Size
	}

	p.logger.Info("charts rendered",
		slog.String("source", a.Source),
		slog.Int("count", len(artifacts)),
		slog.String("format", string(p.renderer.Format())),
		slog.String("size", humanize.Bytes(uint64(total))),
	)

	return artifacts, nil
}

// Process analyses and renders a recording in one call.
func (p *Processor) Process(source string, r io.Reader, sink chart.Sink) (*Analysis, map[string]chart.Artifact, error) {
	a, err := p.Analyze(source, r)
	if err != nil {
		return nil, nil, err
	}

	artifacts, err := p.Render(a, sink)
	if err != nil {
		return nil, nil, err
	}
	return a, artifacts, nil
}
