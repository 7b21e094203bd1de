package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	thresholds, err := c.Analysis.ZoneThresholds()
	require.NoError(t, err)
	assert.Equal(t, respiration.DefaultThresholds, thresholds)

	palette, err := c.Charts.ChartPalette()
	require.NoError(t, err)
	assert.Equal(t, chart.DefaultPalette(), palette)

	assert.Equal(t, ByteSize(32<<20), c.Server.MaxUploadSize)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout.Duration())
}

func TestDefault_DoesNotShareThresholds(t *testing.T) {
	c := Default()
	c.Analysis.Thresholds[0] = 1
	assert.Equal(t, 18.0, respiration.DefaultThresholds[0])
}

func TestParse_OverridesDefaults(t *testing.T) {
	t.Setenv(EnvServiceURL, "")
	os.Unsetenv(EnvServiceURL)

	c, err := Parse([]byte(`
settings:
  logLevel: debug
analysis:
  bucketWidthSeconds: 10
  thresholds: [15, 25, 35]
charts:
  format: jpg
  delivery: file
  histogram: { min: 10, max: 40, binWidth: 2 }
server:
  serviceURL: https://example.com/resp
  maxUploadSize: 10 MB
  shutdownTimeout: 3s
`))
	require.NoError(t, err)

	level, err := c.Settings.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	assert.Equal(t, 10, c.Analysis.BucketWidthSeconds)
	assert.Equal(t, []float64{15, 25, 35}, c.Analysis.Thresholds)
	assert.EqualValues(t, DefaultMaxBuckets, c.Analysis.MaxBuckets)

	format, err := c.Charts.ImageFormat()
	require.NoError(t, err)
	assert.Equal(t, chart.ImageJPEG, format)

	delivery, err := c.Charts.DeliveryMode()
	require.NoError(t, err)
	assert.Equal(t, chart.DeliveryFile, delivery)

	assert.Equal(t, chart.HistogramBins{Min: 10, Max: 40, Width: 2}, c.Charts.Histogram)
	assert.Equal(t, "static", c.Charts.OutputDir)
	assert.Equal(t, ":5000", c.Server.Listen)
	assert.Equal(t, "https://example.com/resp", c.Server.ServiceURL)
	assert.Equal(t, ByteSize(10_000_000), c.Server.MaxUploadSize)
	assert.Equal(t, 3*time.Second, c.Server.ShutdownTimeout.Duration())
}

func TestParse_ServiceURLFromEnvironment(t *testing.T) {
	t.Setenv(EnvServiceURL, "http://10.0.0.2:5000")

	c, err := Parse([]byte("server: { serviceURL: http://from-file }"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:5000", c.Server.ServiceURL)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero bucket width", "analysis: { bucketWidthSeconds: 0 }", "analysis.bucketWidthSeconds"},
		{"negative bucket width", "analysis: { bucketWidthSeconds: -5 }", "analysis.bucketWidthSeconds"},
		{"two thresholds", "analysis: { thresholds: [18, 28] }", "analysis.thresholds"},
		{"unordered thresholds", "analysis: { thresholds: [28, 18, 40] }", "thresholds"},
		{"negative max buckets", "analysis: { maxBuckets: -1 }", "analysis.maxBuckets"},
		{"log level", "settings: { logLevel: loud }", "settings.logLevel"},
		{"format", "charts: { format: gif }", "charts.format"},
		{"delivery", "charts: { delivery: carrier-pigeon }", "charts.delivery"},
		{"palette size", "charts: { palette: { zones: ['#fff'] } }", "charts.palette.zones"},
		{"palette colour", "charts: { palette: { line: red } }", "charts.palette"},
		{"histogram", "charts: { histogram: { binWidth: 0 } }", "histogram"},
		{"output dir", "charts: { outputDir: ' ' }", "charts.outputDir"},
		{"listen", "server: { listen: '' }", "server.listen"},
		{"upload size", "server: { maxUploadSize: '0' }", "server.maxUploadSize"},
		{"upload size overflow", "server: { maxUploadSize: '10 EiB' }", "server.maxUploadSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))

			var target *respiration.InvalidConfigurationError
			require.True(t, errors.As(err, &target), "got %v", err)
			assert.Equal(t, tt.field, target.Field)
		})
	}
}

func TestParse_BadValues(t *testing.T) {
	_, err := Parse([]byte("server: { maxUploadSize: lots }"))
	assert.ErrorContains(t, err, "config.ByteSize")

	_, err = Parse([]byte("server: { shutdownTimeout: soon }"))
	assert.ErrorContains(t, err, "config.TimeDuration")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: { bucketWidthSeconds: 10 }\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Analysis.BucketWidthSeconds)

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBucketWidthSeconds, c.Analysis.BucketWidthSeconds)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestByteSize_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Size ByteSize `yaml:"size"`
	}{Size: 32 << 20})
	require.NoError(t, err)
	assert.Equal(t, "size: 32 MiB\n", string(out))
}
