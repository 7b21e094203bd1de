package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

const (
	defaultDPI      = 100.0
	defaultFontSize = 9.0

	lineSeriesName = "Respiration Rate [BPM]"
)

// ErrNothingToPlot is returned when a chart would have no data at all.
var ErrNothingToPlot = errors.New("nothing to plot")

// Size is an image size in pixels.
type Size struct {
	Width  int
	Height int
}

// RenderConfig holds all configuration options for chart rendering.
type RenderConfig struct {
	Palette   Palette
	Histogram HistogramBins
	Format    ImageFormat

	LineSize      Size
	HistogramSize Size
	PieSize       Size
	SummarySize   Size

	FontSize float64 // points
	DPI      float64
}

// Renderer draws payloads into encoded images. It holds no per-invocation
// state and may be shared between goroutines.
type Renderer struct {
	config RenderConfig
	font   *truetype.Font
}

// NewRenderer creates a renderer, filling zero values with defaults.
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.Palette == (Palette{}) {
		config.Palette = DefaultPalette()
	}
	if config.Histogram == (HistogramBins{}) {
		config.Histogram = DefaultHistogramBins
	}
	if config.Format == "" {
		config.Format = ImagePNG
	}
	if config.LineSize == (Size{}) {
		config.LineSize = Size{Width: 1000, Height: 200}
	}
	if config.HistogramSize == (Size{}) {
		config.HistogramSize = Size{Width: 400, Height: 300}
	}
	if config.PieSize == (Size{}) {
		config.PieSize = Size{Width: 400, Height: 300}
	}
	if config.SummarySize == (Size{}) {
		config.SummarySize = Size{Width: 520, Height: 230}
	}
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}
	if config.DPI == 0 {
		config.DPI = defaultDPI
	}

	if err := config.Histogram.Validate(); err != nil {
		return nil, err
	}
	if _, ok := validImageFormats[config.Format]; !ok {
		return nil, fmt.Errorf("invalid image format: %s", config.Format)
	}

	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Renderer{config: config, font: parsedFont}, nil
}

// Format returns the output image format.
func (r *Renderer) Format() ImageFormat {
	return r.config.Format
}

// Line draws the bucket means over elapsed time. Every run of buckets with
// data is its own series, so empty buckets appear as gaps. A dashed line marks
// each threshold the series exceeds.
func (r *Renderer) Line(p Payload) ([]byte, error) {
	segments := p.Segments()
	if len(segments) == 0 {
		return nil, ErrNothingToPlot
	}
	palette := r.palette(p)

	xMin := p.Points[0].ElapsedSeconds
	xMax := p.Points[len(p.Points)-1].ElapsedSeconds
	if xMax <= xMin {
		xMax = xMin + float64(max(p.BucketWidthSeconds, 1))
	}

	series := make([]chart.Series, 0, len(segments)+len(p.Thresholds))
	for _, seg := range segments {
		xs := make([]float64, len(seg))
		ys := make([]float64, len(seg))
		for i, pt := range seg {
			xs[i] = pt.ElapsedSeconds
			ys[i] = *pt.MeanRateBpm
		}

		style := chart.Style{
			StrokeColor: palette.Line,
			StrokeWidth: 1.5,
		}
		if len(seg) == 1 {
			style.DotColor = palette.Line
			style.DotWidth = 2
		}
		series = append(series, chart.ContinuousSeries{
			Name:    lineSeriesName,
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}

	minRate, _ := p.MinRate()
	maxRate, _ := p.MaxRate()
	yMin, yMax := minRate, maxRate
	for i, th := range p.Thresholds {
		if maxRate <= th {
			continue
		}
		yMax = math.Max(yMax, th)
		series = append(series, chart.ContinuousSeries{
			Name:    respiration.Zone(i + 2).Label(),
			XValues: []float64{xMin, xMax},
			YValues: []float64{th, th},
			Style: chart.Style{
				StrokeColor:     palette.ThresholdColor(i),
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}

	pad := math.Max(1, (yMax-yMin)*0.05)
	yMin -= pad
	if minRate >= 0 {
		yMin = math.Max(0, yMin)
	}
	yMax += pad

	graph := chart.Chart{
		Title:  lineSeriesName,
		Width:  r.config.LineSize.Width,
		Height: r.config.LineSize.Height,
		DPI:    r.config.DPI,
		Font:   r.font,
		TitleStyle: chart.Style{
			FontSize: r.config.FontSize,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: timeTicks(xMin, xMax),
			Style: chart.Style{FontSize: r.config.FontSize},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			Style: chart.Style{FontSize: r.config.FontSize},
		},
		Series: series,
	}

	return r.render(graph.Render)
}

// Histogram draws the distribution of bucket means over the configured bins.
func (r *Renderer) Histogram(p Payload) ([]byte, error) {
	if _, ok := p.MaxRate(); !ok {
		return nil, ErrNothingToPlot
	}
	bins, err := p.Histogram(r.config.Histogram)
	if err != nil {
		return nil, err
	}
	palette := r.palette(p)

	bars := make([]chart.Value, len(bins))
	top := 0
	for i, b := range bins {
		bars[i] = chart.Value{
			Label: formatEdge(b.Lower),
			Value: float64(b.Count),
			Style: chart.Style{
				FillColor:   palette.Line.WithAlpha(160),
				StrokeColor: palette.Line,
				StrokeWidth: 1,
			},
		}
		top = max(top, b.Count)
	}

	size := r.config.HistogramSize
	barWidth := max(2, (size.Width-80)/len(bars)-2)

	graph := chart.BarChart{
		Title:      "Respiration Rate [BPM]",
		Width:      size.Width,
		Height:     size.Height,
		DPI:        r.config.DPI,
		Font:       r.font,
		BarWidth:   barWidth,
		BarSpacing: 2,
		TitleStyle: chart.Style{
			FontSize: r.config.FontSize,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.Style{
			FontSize: r.config.FontSize * 0.7,
		},
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(top, 1))},
			Style: chart.Style{FontSize: r.config.FontSize},
		},
		Bars: bars,
	}

	return r.render(graph.Render)
}

// Pie draws the share of buckets per zone, each zone in its own colour.
func (r *Renderer) Pie(p Payload) ([]byte, error) {
	counts := p.ZoneCounts()
	if len(counts) == 0 {
		return nil, ErrNothingToPlot
	}

	palette := r.palette(p)

	var total int
	for _, c := range counts {
		total += c.Count
	}

	values := make([]chart.Value, len(counts))
	for i, c := range counts {
		color := palette.ZoneColor(c.Zone)
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", c.Label, 100*float64(c.Count)/float64(total)),
			Value: float64(c.Count),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontColor:   drawing.ColorBlack,
				FontSize:    r.config.FontSize,
			},
		}
	}

	graph := chart.PieChart{
		Title:  "Zones",
		Width:  r.config.PieSize.Width,
		Height: r.config.PieSize.Height,
		DPI:    r.config.DPI,
		Font:   r.font,
		TitleStyle: chart.Style{
			FontSize: r.config.FontSize * 1.4,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	return r.render(graph.Render)
}

// palette prefers the payload's own palette and falls back to the configured
// one for payloads built without it.
func (r *Renderer) palette(p Payload) Palette {
	if pp := p.Palette(); pp != (Palette{}) {
		return pp
	}
	return r.config.Palette
}

func (r *Renderer) render(fn func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return transcode(buf.Bytes(), r.config.Format)
}

// timeTicks places about eight ticks at a round elapsed-time step, labelled
// with the elapsed-as-clock time.
func timeTicks(from, to float64) []chart.Tick {
	step := niceTimeStep(to - from)
	start := math.Ceil(from/step) * step

	var ticks []chart.Tick
	for v := start; v <= to; v += step {
		ticks = append(ticks, chart.Tick{
			Value: v,
			Label: respiration.ClockFromSeconds(v).String(),
		})
	}
	return ticks
}

func niceTimeStep(span float64) float64 {
	roughStep := span / 8 // Aim for about 8 time labels

	niceIntervals := []float64{
		1, 5, 10, 15, 30,
		60,    // 1 minute
		300,   // 5 minutes
		600,   // 10 minutes
		900,   // 15 minutes
		1800,  // 30 minutes
		3600,  // 1 hour
		7200,  // 2 hours
		14400, // 4 hours
	}

	for _, interval := range niceIntervals {
		if roughStep <= interval {
			return interval
		}
	}
	return 6 * 3600
}

func formatEdge(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
