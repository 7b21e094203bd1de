package respiration

import (
	"encoding/json"
	"fmt"
	"math"
)

// Zone is an ordered respiration intensity band. ZoneNone means the rate had
// no defined zone, either because it was not positive or there was no data.
type Zone uint8

const (
	ZoneNone Zone = iota
	ZoneLow
	ZoneMedium
	ZoneHigh
	ZoneExtreme
)

// Zones lists the defined zones in ascending order.
var Zones = []Zone{ZoneLow, ZoneMedium, ZoneHigh, ZoneExtreme}

var zoneNames = map[Zone]string{
	ZoneLow:     "Low",
	ZoneMedium:  "Medium",
	ZoneHigh:    "High",
	ZoneExtreme: "Extreme",
}

// Valid reports whether z is one of the four defined zones.
func (z Zone) Valid() bool {
	return z >= ZoneLow && z <= ZoneExtreme
}

// Name returns the bare zone name, e.g. "Low".
func (z Zone) Name() string {
	return zoneNames[z]
}

// Label returns the display label, e.g. "1 (Low)".
func (z Zone) Label() string {
	if !z.Valid() {
		return ""
	}
	return fmt.Sprintf("%d (%s)", z, z.Name())
}

func (z Zone) String() string {
	if !z.Valid() {
		return "none"
	}
	return z.Label()
}

// MarshalJSON encodes the zone number, or null for ZoneNone.
func (z Zone) MarshalJSON() ([]byte, error) {
	if !z.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(uint8(z))
}

// DefaultThresholds are the upper bounds of the Low, Medium and High zones.
var DefaultThresholds = Thresholds{18, 28, 40}

// Thresholds holds the inclusive upper bounds of zones 1 to 3. Anything above
// the last threshold is Extreme.
type Thresholds [3]float64

// Validate checks that the thresholds are finite and strictly increasing.
func (t Thresholds) Validate() error {
	for i, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInvalidConfigurationError("thresholds", fmt.Sprintf("threshold %d is not a finite number", i+1))
		}
		if i > 0 && v <= t[i-1] {
			return NewInvalidConfigurationError("thresholds",
				fmt.Sprintf("must be strictly increasing: %g <= %g", v, t[i-1]))
		}
	}
	return nil
}

// Classifier maps rates to zones using a validated threshold table.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier validates the thresholds and returns a Classifier.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the classifier threshold table.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify returns the zone of rate. A boundary value belongs to the lower
// zone. Rates <= 0 and NaN have no zone.
func (c *Classifier) Classify(rate float64) Zone {
	switch {
	case math.IsNaN(rate) || rate <= 0:
		return ZoneNone
	case rate <= c.thresholds[0]:
		return ZoneLow
	case rate <= c.thresholds[1]:
		return ZoneMedium
	case rate <= c.thresholds[2]:
		return ZoneHigh
	default:
		return ZoneExtreme
	}
}

// Classify is a one-off classification against thresholds.
func Classify(rate float64, t Thresholds) (Zone, error) {
	c, err := NewClassifier(t)
	if err != nil {
		return ZoneNone, err
	}
	return c.Classify(rate), nil
}
