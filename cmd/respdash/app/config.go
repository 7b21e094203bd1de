package app

import (
	"flag"
	"fmt"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/config"
)

type Config struct {
	Settings *config.Config
	Verbose  bool
}

// NewConfigFromCLI parses args (without the program name). Flags override
// values of the configuration file given with -c.
func NewConfigFromCLI(args []string) (*Config, error) {
	fs := flag.NewFlagSet("respdash", flag.ContinueOnError)
	c := &Config{}

	var configPath, listen, outputDir, delivery string
	fs.StringVar(&configPath, "c", "", "Path to the configuration file")
	fs.StringVar(&listen, "listen", "", "Address to listen on")
	fs.StringVar(&outputDir, "o", "", "Directory charts are written to and served from")
	fs.StringVar(&delivery, "delivery", "", "Chart delivery. [file, inline]")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	c.Settings = settings

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			settings.Server.Listen = listen
		case "o":
			settings.Charts.OutputDir = outputDir
			settings.Charts.Delivery = string(chart.DeliveryFile)
		case "delivery":
			settings.Charts.Delivery = delivery
		}
	})

	if err = settings.Validate(); err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}
