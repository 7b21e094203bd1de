package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

const (
	cardFontSize float64 = 14
	cardSpacing  float64 = 1.4
	cardMargin   int     = 14
	swatchSize   int     = 12
)

// Summary draws a card with the recording metrics and the number of buckets
// per zone.
func (r *Renderer) Summary(m respiration.Metrics, samples int, p Payload) ([]byte, error) {
	size := r.config.SummarySize
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(r.font)
	ctx.SetFontSize(cardFontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.Black)

	lineHeight := ctx.PointToFixed(cardFontSize * cardSpacing).Ceil()
	left := cardMargin
	top := cardMargin + lineHeight

	lines := []string{
		"Start: " + m.StartDatetime,
		"Duration: " + m.Duration,
		fmt.Sprintf("Rate: min %s / avg %s / max %s bpm", m.MinBpm, m.AvgBpm, m.MaxBpm),
		fmt.Sprintf("Samples: %s in %s buckets of %ds",
			humanize.Comma(int64(samples)), humanize.Comma(int64(len(p.Points))), p.BucketWidthSeconds),
	}
	for _, s := range lines {
		if _, err := ctx.DrawString(s, freetype.Pt(left, top)); err != nil {
			return nil, fmt.Errorf("drawing text: %w", err)
		}
		top += lineHeight
	}

	palette := r.palette(p)
	counts := make(map[respiration.Zone]int, len(respiration.Zones))
	var total int
	for _, zc := range p.ZoneCounts() {
		counts[zc.Zone] = zc.Count
		total += zc.Count
	}

	face := truetype.NewFace(r.font, &truetype.Options{Size: cardFontSize, DPI: 72})
	defer face.Close()
	column := (size.Width - 2*cardMargin) / 2

	top += lineHeight / 3
	for i, z := range respiration.Zones {
		x := left + (i%2)*column
		y := top + (i/2)*lineHeight

		swatch := image.Rect(x, y-swatchSize, x+swatchSize, y)
		draw.Draw(img, swatch, &image.Uniform{C: color.RGBA(palette.ZoneColor(z))}, image.Point{}, draw.Src)

		label := fmt.Sprintf("%s: %s", z.Label(), humanize.Comma(int64(counts[z])))
		if total > 0 {
			label += fmt.Sprintf(" (%.0f%%)", 100*float64(counts[z])/float64(total))
		}
		if width := font.MeasureString(face, label).Ceil(); width > column-swatchSize-6 {
			ctx.SetFontSize(cardFontSize * float64(column-swatchSize-6) / float64(width))
		}
		if _, err := ctx.DrawString(label, freetype.Pt(x+swatchSize+6, y)); err != nil {
			return nil, fmt.Errorf("drawing zone label: %w", err)
		}
		ctx.SetFontSize(cardFontSize)
	}

	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, r.config.Format); err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	return buf.Bytes(), nil
}
