package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/roman-kulish/respiration-monitor/internal/chart"
	"github.com/roman-kulish/respiration-monitor/internal/config"
	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

type Config struct {
	Settings *config.Config

	InputFile   string
	ExportDir   string
	InspectDB   string
	RecordingID int64
	Zone        *respiration.Zone
	NoCharts    bool
	JSON        bool
	Verbose     bool

	Out io.Writer
}

// NewConfigFromCLI parses args (without the program name). Flags override
// values of the configuration file given with -c.
func NewConfigFromCLI(args []string) (*Config, error) {
	fs := flag.NewFlagSet("respview", flag.ContinueOnError)
	c := &Config{Out: os.Stdout}

	var configPath, outputDir, imageFormat, delivery string
	var bucketWidth, zone int
	fs.StringVar(&configPath, "c", "", "Path to the configuration file")
	fs.StringVar(&c.InputFile, "i", "", "Path to the CSV export to process")
	fs.StringVar(&outputDir, "o", "", "Directory charts are written to")
	fs.StringVar(&imageFormat, "f", "", "Chart image format. [png, jpeg]")
	fs.StringVar(&delivery, "delivery", "", "Chart delivery. [file, inline]")
	fs.IntVar(&bucketWidth, "w", 0, "Bucket width in seconds")
	fs.StringVar(&c.ExportDir, "export", "", "Export the processed recording into a new SQLite file in this directory")
	fs.StringVar(&c.InspectDB, "inspect", "", "Print the buckets of an exported SQLite file instead of processing a CSV")
	fs.Int64Var(&c.RecordingID, "recording", 1, "Recording ID to inspect")
	fs.IntVar(&zone, "zone", 0, "Only inspect buckets of this zone (1-4)")
	fs.BoolVar(&c.NoCharts, "no-charts", false, "Do not render charts")
	fs.BoolVar(&c.JSON, "json", false, "Print the report as JSON")
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
		case "o":
			settings.Charts.OutputDir = outputDir
			settings.Charts.Delivery = string(chart.DeliveryFile)
		case "f":
			settings.Charts.Format = imageFormat
		case "delivery":
			settings.Charts.Delivery = delivery
		case "w":
			settings.Analysis.BucketWidthSeconds = bucketWidth
		case "zone":
			z := respiration.Zone(zone)
			c.Zone = &z
		}
	})

	switch {
	case c.InputFile == "" && c.InspectDB == "":
		err = errors.New("input file is required")
	case c.InputFile != "" && c.InspectDB != "":
		err = errors.New("-i and -inspect are mutually exclusive")
	case c.InspectDB != "" && c.RecordingID <= 0:
		err = errors.New("recording id must be positive")
	case c.Zone != nil && !c.Zone.Valid():
		err = fmt.Errorf("invalid zone: %d", zone)
	}
	if err == nil {
		err = settings.Validate()
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}
