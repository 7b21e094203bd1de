package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want drawing.Color
	}{
		{"#ff7f0e", drawing.Color{R: 0xff, G: 0x7f, B: 0x0e, A: 255}},
		{"00FF00", drawing.Color{G: 0xff, A: 255}},
		{"#f00", drawing.Color{R: 0xff, A: 255}},
		{" #0000ff ", drawing.Color{B: 0xff, A: 255}},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "#12", "#12345", "#gggggg", "blue"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestHexColor_RoundTrip(t *testing.T) {
	c, err := ParseHexColor("#ff7f0e")
	require.NoError(t, err)
	assert.Equal(t, "#ff7f0e", HexColor(c))
}

func TestPalette_ZoneColors(t *testing.T) {
	p := DefaultPalette()

	assert.Equal(t, "#0000ff", HexColor(p.ZoneColor(respiration.ZoneLow)))
	assert.Equal(t, "#ff0000", HexColor(p.ZoneColor(respiration.ZoneExtreme)))
	assert.Equal(t, noDataColor, p.ZoneColor(respiration.ZoneNone))

	// the line at threshold i takes the colour of the zone above it
	assert.Equal(t, "#00ff00", HexColor(p.ThresholdColor(0)))
	assert.Equal(t, "#ff7f0e", HexColor(p.ThresholdColor(1)))
	assert.Equal(t, "#ff0000", HexColor(p.ThresholdColor(2)))
}

func TestNewPalette(t *testing.T) {
	p, err := NewPalette("#123456", [4]string{"#111", "#222", "#333", "#444"})
	require.NoError(t, err)
	assert.Equal(t, "#123456", HexColor(p.Line))
	assert.Equal(t, "#333333", HexColor(p.Zones[2]))

	_, err = NewPalette("#123456", [4]string{"#111", "nope", "#333", "#444"})
	assert.ErrorContains(t, err, "zone 2")
}
