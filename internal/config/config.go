package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

// EnvServiceURL overrides server.serviceURL when set.
const EnvServiceURL = "SERVICE_URL"

// Config represents the main application configuration
type Config struct {
	Settings Settings `yaml:"settings"`
	Analysis Analysis `yaml:"analysis"`
	Charts   Charts   `yaml:"charts"`
	Server   Server   `yaml:"server"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level parses LogLevel as slog does ("debug", "info", "warn+2", ...).
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, respiration.NewInvalidConfigurationError("settings.logLevel", err.Error())
	}
	return level, nil
}

// Analysis represents resampling and classification settings
type Analysis struct {
	BucketWidthSeconds int       `yaml:"bucketWidthSeconds"`
	Thresholds         []float64 `yaml:"thresholds"`
	MaxBuckets         int64     `yaml:"maxBuckets"`
}

// ZoneThresholds returns the three zone thresholds.
func (a Analysis) ZoneThresholds() (respiration.Thresholds, error) {
	var t respiration.Thresholds
	if len(a.Thresholds) != len(t) {
		return t, respiration.NewInvalidConfigurationError("analysis.thresholds",
			fmt.Sprintf("exactly %d values required, %d given", len(t), len(a.Thresholds)))
	}
	copy(t[:], a.Thresholds)
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Charts represents chart rendering and delivery settings
type Charts struct {
	Format    string              `yaml:"format"`
	Delivery  string              `yaml:"delivery"`
	OutputDir string              `yaml:"outputDir"`
	Histogram chart.HistogramBins `yaml:"histogram"`
	Palette   Palette             `yaml:"palette"`
}

// Palette holds hex colours of the line and the four zones
type Palette struct {
	Line  string   `yaml:"line"`
	Zones []string `yaml:"zones"`
}

// ImageFormat returns the parsed chart image format.
func (c Charts) ImageFormat() (chart.ImageFormat, error) {
	f, err := chart.ParseImageFormat(c.Format)
	if err != nil {
		return "", respiration.NewInvalidConfigurationError("charts.format", err.Error())
	}
	return f, nil
}

// DeliveryMode returns the parsed chart delivery mode.
func (c Charts) DeliveryMode() (chart.Delivery, error) {
	d, err := chart.ParseDelivery(c.Delivery)
	if err != nil {
		return "", respiration.NewInvalidConfigurationError("charts.delivery", err.Error())
	}
	return d, nil
}

// ChartPalette returns the parsed colour palette.
func (c Charts) ChartPalette() (chart.Palette, error) {
	var zones [4]string
	if len(c.Palette.Zones) != len(zones) {
		return chart.Palette{}, respiration.NewInvalidConfigurationError("charts.palette.zones",
			fmt.Sprintf("exactly %d colours required, %d given", len(zones), len(c.Palette.Zones)))
	}
	copy(zones[:], c.Palette.Zones)

	p, err := chart.NewPalette(c.Palette.Line, zones)
	if err != nil {
		return chart.Palette{}, respiration.NewInvalidConfigurationError("charts.palette", err.Error())
	}
	return p, nil
}

// RenderConfig returns the renderer configuration.
func (c Charts) RenderConfig() (chart.RenderConfig, error) {
	format, err := c.ImageFormat()
	if err != nil {
		return chart.RenderConfig{}, err
	}
	palette, err := c.ChartPalette()
	if err != nil {
		return chart.RenderConfig{}, err
	}
	return chart.RenderConfig{
		Palette:   palette,
		Histogram: c.Histogram,
		Format:    format,
	}, nil
}

// Server represents dashboard HTTP server settings
type Server struct {
	Listen          string       `yaml:"listen"`
	ServiceURL      string       `yaml:"serviceURL"`
	MaxUploadSize   ByteSize     `yaml:"maxUploadSize"`
	ShutdownTimeout TimeDuration `yaml:"shutdownTimeout"`
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. SERVICE_URL from the environment wins over the file.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if v, ok := os.LookupEnv(EnvServiceURL); ok {
		config.Server.ServiceURL = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every section and returns the first problem as an
// InvalidConfigurationError.
func (c *Config) Validate() error {
	if _, err := c.Settings.Level(); err != nil {
		return err
	}

	if c.Analysis.BucketWidthSeconds <= 0 {
		return respiration.NewInvalidConfigurationError("analysis.bucketWidthSeconds",
			fmt.Sprintf("must be a positive number of seconds: %d given", c.Analysis.BucketWidthSeconds))
	}
	if c.Analysis.MaxBuckets < 0 {
		return respiration.NewInvalidConfigurationError("analysis.maxBuckets", "must not be negative")
	}
	if _, err := c.Analysis.ZoneThresholds(); err != nil {
		return err
	}

	if _, err := c.Charts.RenderConfig(); err != nil {
		return err
	}
	if _, err := c.Charts.DeliveryMode(); err != nil {
		return err
	}
	if err := c.Charts.Histogram.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Charts.OutputDir) == "" {
		return respiration.NewInvalidConfigurationError("charts.outputDir", "must not be empty")
	}

	if c.Server.Listen == "" {
		return respiration.NewInvalidConfigurationError("server.listen", "must not be empty")
	}
	if c.Server.MaxUploadSize == 0 {
		return respiration.NewInvalidConfigurationError("server.maxUploadSize", "must be positive")
	}
	if c.Server.MaxUploadSize > math.MaxInt64 {
		return respiration.NewInvalidConfigurationError("server.maxUploadSize",
			fmt.Sprintf("must not exceed %s: %s given", ByteSize(math.MaxInt64), c.Server.MaxUploadSize))
	}
	if c.Server.ShutdownTimeout < 0 {
		return respiration.NewInvalidConfigurationError("server.shutdownTimeout", "must not be negative")
	}

	return nil
}
