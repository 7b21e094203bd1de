package chart

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

func testPayload() Payload {
	return Produce(resampled(5, bpm(14), bpm(16), bpm(22), nil, nil, bpm(31), bpm(29), bpm(45), bpm(17)), 5,
		respiration.DefaultThresholds, DefaultPalette())
}

func decodeConfig(t *testing.T, data []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg, format
}

func TestRenderer_Defaults(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)

	assert.Equal(t, ImagePNG, r.Format())
	assert.Equal(t, DefaultPalette(), r.config.Palette)
	assert.Equal(t, DefaultHistogramBins, r.config.Histogram)
	assert.Equal(t, Size{Width: 1000, Height: 200}, r.config.LineSize)
}

func TestRenderer_InvalidConfig(t *testing.T) {
	_, err := NewRenderer(RenderConfig{Histogram: HistogramBins{Min: 1, Max: 2, Width: 5}})
	var target *respiration.InvalidConfigurationError
	assert.True(t, errors.As(err, &target))

	_, err = NewRenderer(RenderConfig{Format: "gif"})
	assert.Error(t, err)
}

func TestRenderer_Charts(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)
	p := testPayload()

	tests := []struct {
		name   string
		render func(Payload) ([]byte, error)
		want   Size
	}{
		{"line", r.Line, Size{Width: 1000, Height: 200}},
		{"histogram", r.Histogram, Size{Width: 400, Height: 300}},
		{"pie", r.Pie, Size{Width: 400, Height: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.render(p)
			require.NoError(t, err)

			cfg, format := decodeConfig(t, data)
			assert.Equal(t, "png", format)
			assert.Equal(t, tt.want.Width, cfg.Width)
			assert.Equal(t, tt.want.Height, cfg.Height)
		})
	}
}

func TestRenderer_JPEG(t *testing.T) {
	r, err := NewRenderer(RenderConfig{Format: ImageJPEG})
	require.NoError(t, err)

	data, err := r.Line(testPayload())
	require.NoError(t, err)
	_, format := decodeConfig(t, data)
	assert.Equal(t, "jpeg", format)
}

func TestRenderer_NothingToPlot(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)
	p := Produce(resampled(5, nil, nil), 5, respiration.DefaultThresholds, DefaultPalette())

	_, err = r.Line(p)
	assert.ErrorIs(t, err, ErrNothingToPlot)
	_, err = r.Histogram(p)
	assert.ErrorIs(t, err, ErrNothingToPlot)
	_, err = r.Pie(p)
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestRenderer_Summary(t *testing.T) {
	r, err := NewRenderer(RenderConfig{})
	require.NoError(t, err)

	m := respiration.Metrics{
		StartDatetime: "2023-07-13 12:30:00",
		Duration:      "00:00:45",
		MinBpm:        "14.00",
		MaxBpm:        "45.00",
		AvgBpm:        "24.86",
	}
	data, err := r.Summary(m, 12_345, testPayload())
	require.NoError(t, err)

	cfg, _ := decodeConfig(t, data)
	assert.Equal(t, 520, cfg.Width)
	assert.Equal(t, 230, cfg.Height)
}

func TestNiceTimeStep(t *testing.T) {
	assert.Equal(t, 5.0, niceTimeStep(40))
	assert.Equal(t, 60.0, niceTimeStep(400))
	assert.Equal(t, 3600.0, niceTimeStep(8*3600))
	assert.Equal(t, 6*3600.0, niceTimeStep(100*3600))

	ticks := timeTicks(0, 120)
	require.NotEmpty(t, ticks)
	assert.Equal(t, "00:00:00", ticks[0].Label)
	assert.Equal(t, "00:00:15", ticks[1].Label)
}
