package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size written in human form in YAML, e.g. "32 MiB" or "10MB".
// Plain integers are bytes.
type ByteSize uint64

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	size, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("config.ByteSize: failed to parse %q: %w", value.Value, err)
	}

	*b = ByteSize(size)
	return nil
}

func (b ByteSize) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// TimeDuration is a time.Duration written as "10s", "1m30s" in YAML.
type TimeDuration time.Duration

func (d TimeDuration) Duration() time.Duration {
	return time.Duration(d)
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
