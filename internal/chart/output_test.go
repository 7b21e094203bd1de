package chart

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageFormat(t *testing.T) {
	for in, want := range map[string]ImageFormat{"png": ImagePNG, "PNG": ImagePNG, "jpeg": ImageJPEG, "jpg": ImageJPEG} {
		got, err := ParseImageFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseImageFormat("gif")
	assert.Error(t, err)

	assert.Equal(t, ".jpeg", ImageJPEG.Extension())
	assert.Equal(t, "image/png", ImagePNG.MIMEType())
}

func TestTranscode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, img, ImagePNG))

	same, err := transcode(buf.Bytes(), ImagePNG)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), same)

	jpg, err := transcode(buf.Bytes(), ImageJPEG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, jpg[:2])
}

func TestInlineSink(t *testing.T) {
	a, err := InlineSink{}.Put("line", ImagePNG, []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, "line", a.Name)
	assert.Equal(t, 3, a.Size)
	assert.Empty(t, a.Path)
	require.True(t, strings.HasPrefix(a.DataURI, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(a.DataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(raw))
}

func TestDirSink_UniquePerInvocation(t *testing.T) {
	base := filepath.Join(t.TempDir(), "static")

	first, err := NewDirSink(base)
	require.NoError(t, err)
	second, err := NewDirSink(base)
	require.NoError(t, err)
	assert.NotEqual(t, first.Dir(), second.Dir())

	a, err := first.Put("pie", ImageJPEG, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first.Dir(), "pie.jpeg"), a.Path)
	assert.Empty(t, a.DataURI)

	b, err := second.Put("pie", ImageJPEG, []byte{4})
	require.NoError(t, err)

	got, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	got, err = os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, got)
}

func TestNewSink(t *testing.T) {
	s, err := NewSink(DeliveryInline, "")
	require.NoError(t, err)
	assert.IsType(t, InlineSink{}, s)

	s, err = NewSink(DeliveryFile, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &DirSink{}, s)

	_, err = ParseDelivery("email")
	assert.Error(t, err)
}
