package chart

import (
	"fmt"
	"math"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// Point is one resampled bucket as handed to a renderer. MeanRateBpm and Zone
// keep their absent values; an empty bucket is never turned into a 0 bpm
// reading.
type Point struct {
	Time           string           `json:"time"`
	ElapsedSeconds float64          `json:"elapsedSeconds"`
	MeanRateBpm    *float64         `json:"meanRateBpm"`
	Zone           respiration.Zone `json:"zone"`
}

// ZoneStyle describes one zone for legends and pie slices.
type ZoneStyle struct {
	Zone  respiration.Zone `json:"zone"`
	Label string           `json:"label"`
	Color string           `json:"color"`
	Lower float64          `json:"lower"`           // exclusive lower bound
	Upper *float64         `json:"upper,omitempty"` // inclusive upper bound, nil for the last zone
}

// Payload is everything an external renderer needs to draw a recording.
type Payload struct {
	BucketWidthSeconds int                    `json:"bucketWidthSeconds"`
	Points             []Point                `json:"points"`
	Thresholds         respiration.Thresholds `json:"thresholds"`
	Zones              []ZoneStyle            `json:"zones"`
	LineColor          string                 `json:"lineColor"`

	palette Palette
}

// Produce shapes a resampled series into a renderer payload.
func Produce(points []respiration.ResampledPoint, bucketWidthSeconds int, thresholds respiration.Thresholds, palette Palette) Payload {
	p := Payload{
		BucketWidthSeconds: bucketWidthSeconds,
		Points:             make([]Point, len(points)),
		Thresholds:         thresholds,
		Zones:              make([]ZoneStyle, 0, len(respiration.Zones)),
		LineColor:          HexColor(palette.Line),
		palette:            palette,
	}

	for i, rp := range points {
		pt := Point{
			Time:           rp.TimeOfDay.String(),
			ElapsedSeconds: rp.Elapsed.Seconds(),
			Zone:           rp.Zone,
		}
		if rp.MeanRateBpm != nil {
			mean := *rp.MeanRateBpm
			pt.MeanRateBpm = &mean
		}
		p.Points[i] = pt
	}

	lower := 0.0
	for i, z := range respiration.Zones {
		style := ZoneStyle{
			Zone:  z,
			Label: z.Label(),
			Color: HexColor(palette.ZoneColor(z)),
			Lower: lower,
		}
		if i < len(thresholds) {
			upper := thresholds[i]
			style.Upper = &upper
			lower = upper
		}
		p.Zones = append(p.Zones, style)
	}

	return p
}

// Palette returns the palette the payload was produced with.
func (p Payload) Palette() Palette {
	return p.palette
}

// MaxRate returns the largest bucket mean, false when no bucket has data.
func (p Payload) MaxRate() (float64, bool) {
	return p.extreme(math.Max, math.Inf(-1))
}

// MinRate returns the smallest bucket mean, false when no bucket has data.
func (p Payload) MinRate() (float64, bool) {
	return p.extreme(math.Min, math.Inf(1))
}

func (p Payload) extreme(pick func(a, b float64) float64, init float64) (float64, bool) {
	v, found := init, false
	for _, pt := range p.Points {
		if pt.MeanRateBpm != nil {
			v = pick(v, *pt.MeanRateBpm)
			found = true
		}
	}
	return v, found
}

// Segments splits the series into runs of consecutive buckets with data, so
// that a line drawn through each run shows gaps where buckets were empty.
func (p Payload) Segments() [][]Point {
	var segments [][]Point
	var current []Point
	for _, pt := range p.Points {
		if pt.MeanRateBpm == nil {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		current = append(current, pt)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// ZoneCount is the number of buckets classified into a zone.
type ZoneCount struct {
	ZoneStyle
	Count int `json:"count"`
}

// ZoneCounts counts buckets per zone in zone order. Buckets without a zone are
// not counted, and zones with no buckets are omitted.
func (p Payload) ZoneCounts() []ZoneCount {
	counts := make(map[respiration.Zone]int, len(respiration.Zones))
	for _, pt := range p.Points {
		if pt.Zone.Valid() {
			counts[pt.Zone]++
		}
	}

	var out []ZoneCount
	for _, style := range p.Zones {
		if n := counts[style.Zone]; n > 0 {
			out = append(out, ZoneCount{ZoneStyle: style, Count: n})
		}
	}
	return out
}

// HistogramBins defines histogram edges Min, Min+Width, ... below Max, as
// numpy.arange(Min, Max, Width) does. The last bin is closed on both sides.
type HistogramBins struct {
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Width float64 `yaml:"binWidth" json:"binWidth"`
}

// DefaultHistogramBins are the edges 12, 13, ... 33.
var DefaultHistogramBins = HistogramBins{Min: 12, Max: 34, Width: 1}

func (b HistogramBins) Validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsNaN(b.Width) ||
		math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) || math.IsInf(b.Width, 0) {
		return respiration.NewInvalidConfigurationError("histogram", "bounds must be finite numbers")
	}
	if b.Width <= 0 {
		return respiration.NewInvalidConfigurationError("histogram", fmt.Sprintf("bin width must be positive: %g given", b.Width))
	}
	if b.edges() < 2 {
		return respiration.NewInvalidConfigurationError("histogram",
			fmt.Sprintf("range %g..%g holds no complete bin of width %g", b.Min, b.Max, b.Width))
	}
	return nil
}

func (b HistogramBins) edges() int {
	return int(math.Ceil((b.Max - b.Min) / b.Width))
}

// Bin is one histogram bar.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram counts bucket means per bin. Means outside the edges are ignored.
func (p Payload) Histogram(b HistogramBins) ([]Bin, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	n := b.edges() - 1
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{
			Lower: b.Min + float64(i)*b.Width,
			Upper: b.Min + float64(i+1)*b.Width,
		}
	}

	top := bins[n-1].Upper
	for _, pt := range p.Points {
		if pt.MeanRateBpm == nil {
			continue
		}
		v := *pt.MeanRateBpm
		if v < b.Min || v > top {
			continue
		}
		i := int(math.Floor((v - b.Min) / b.Width))
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins, nil
}
