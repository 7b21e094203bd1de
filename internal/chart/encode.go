package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	jpegQuality = 98
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// ParseImageFormat accepts "png", "jpeg" and "jpg" in any case.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpg" {
		f = ImageJPEG
	}
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", s)
	}
	return f, nil
}

func (f ImageFormat) Extension() string {
	return "." + string(f)
}

func (f ImageFormat) MIMEType() string {
	switch f {
	case ImageJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// EncodeImage writes img in the given format.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)

	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: jpegQuality,
		})
	}
	return fmt.Errorf("invalid image format: %s", format)
}

// transcode converts a PNG produced by go-chart into format.
func transcode(p []byte, format ImageFormat) ([]byte, error) {
	if format == ImagePNG {
		return p, nil
	}

	img, err := png.Decode(bytes.NewReader(p))
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}

	var buf bytes.Buffer
	if err = EncodeImage(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
