package config

import (
	"time"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

const (
	DefaultBucketWidthSeconds = 5
	DefaultMaxBuckets         = respiration.DefaultMaxBuckets
	DefaultListen             = ":5000"
	DefaultMaxUploadSize      = 32 << 20
	DefaultShutdownTimeout    = 10 * time.Second
)

// Default returns a configuration with every value set.
func Default() *Config {
	palette := chart.DefaultPalette()
	thresholds := respiration.DefaultThresholds
	zones := make([]string, len(palette.Zones))
	for i, z := range palette.Zones {
		zones[i] = chart.HexColor(z)
	}

	return &Config{
		Settings: Settings{
			LogLevel: "info",
		},
		Analysis: Analysis{
			BucketWidthSeconds: DefaultBucketWidthSeconds,
			Thresholds:         thresholds[:],
			MaxBuckets:         DefaultMaxBuckets,
		},
		Charts: Charts{
			Format:    string(chart.ImagePNG),
			Delivery:  string(chart.DeliveryInline),
			OutputDir: "static",
			Histogram: chart.DefaultHistogramBins,
			Palette: Palette{
				Line:  chart.HexColor(palette.Line),
				Zones: zones,
			},
		},
		Server: Server{
			Listen:          DefaultListen,
			MaxUploadSize:   DefaultMaxUploadSize,
			ShutdownTimeout: TimeDuration(DefaultShutdownTimeout),
		},
	}
}
