package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// Palette holds the colours of the line series and of each zone. It is passed
// to the renderer explicitly; there is no process-wide default style.
type Palette struct {
	Line  drawing.Color
	Zones [4]drawing.Color // indexed by zone - 1
}

// DefaultPalette mirrors the classic dashboard colours: blue line, and blue,
// lime, orange and red zones.
func DefaultPalette() Palette {
	return Palette{
		Line: mustHex("#0000ff"),
		Zones: [4]drawing.Color{
			mustHex("#0000ff"),
			mustHex("#00ff00"),
			mustHex("#ff7f0e"),
			mustHex("#ff0000"),
		},
	}
}

// NewPalette builds a palette from hex colour strings.
func NewPalette(line string, zones [4]string) (Palette, error) {
	var p Palette
	var err error

	if p.Line, err = ParseHexColor(line); err != nil {
		return Palette{}, fmt.Errorf("line colour: %w", err)
	}
	for i, z := range zones {
		if p.Zones[i], err = ParseHexColor(z); err != nil {
			return Palette{}, fmt.Errorf("zone %d colour: %w", i+1, err)
		}
	}
	return p, nil
}

// ZoneColor returns the colour of z, or the no-data colour for ZoneNone.
func (p Palette) ZoneColor(z respiration.Zone) drawing.Color {
	if !z.Valid() {
		return noDataColor
	}
	return p.Zones[z-1]
}

// ThresholdColor returns the colour of the zone that starts above threshold i.
func (p Palette) ThresholdColor(i int) drawing.Color {
	return p.ZoneColor(respiration.Zone(i + 2))
}

var noDataColor = drawing.Color{R: 128, G: 128, B: 128, A: 255}

// ParseHexColor parses "#rgb" or "#rrggbb".
func ParseHexColor(s string) (drawing.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("invalid hex colour: %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return drawing.Color{}, fmt.Errorf("invalid hex colour: %q", s)
	}

	return drawing.Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// HexColor formats c as "#rrggbb".
func HexColor(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func mustHex(s string) drawing.Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
