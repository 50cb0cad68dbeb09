// Package bloodsugar holds glucose samples, range classification and the
// anchoring of treatment events onto a glucose series.
package bloodsugar

import (
	"strings"
	"time"
)

// RangeBand is the display classification of a glucose value.
// The ordering only exists for a stable legend.
type RangeBand int

const (
	BandGray RangeBand = iota
	BandGreen
	BandYellow
	BandRed
)

// Glucose thresholds in mg/dL.
const (
	ThresholdHigh     = 180
	ThresholdVeryHigh = 250
)

// StaleThreshold is how old a reading can be before it's considered stale.
const StaleThreshold = 10 * time.Minute

// Bands lists every band in legend order.
var Bands = []RangeBand{BandGray, BandGreen, BandYellow, BandRed}

func (b RangeBand) String() string {
	switch b {
	case BandGreen:
		return "green"
	case BandYellow:
		return "yellow"
	case BandRed:
		return "red"
	default:
		return "gray"
	}
}

// Classify determines the band for a glucose value. Negative values come from
// malformed upstream data and are classified gray.
func Classify(mgdl int) RangeBand {
	switch {
	case mgdl < 0:
		return BandGray
	case mgdl < ThresholdHigh:
		return BandGreen
	case mgdl < ThresholdVeryHigh:
		return BandYellow
	default:
		return BandRed
	}
}

// Sample is a single glucose measurement.
type Sample struct {
	Value     int // mg/dL
	Timestamp time.Time
}

// NewSample creates a sample.
func NewSample(value int, timestamp time.Time) Sample {
	return Sample{Value: value, Timestamp: timestamp}
}

// Reading is the latest glucose value with its context, as shown in the
// header of the caregiver view.
type Reading struct {
	Glucose     int       // mg/dL
	GlucoseMmol float64   // mmol/L
	Trend       string    // Raw trend from Nightscout (e.g., "Flat", "SingleUp")
	TrendArrow  string    // Display arrow (for text display)
	Delta       int       // Change from previous reading in mg/dL
	Timestamp   time.Time
	IsStale     bool
	Band        RangeBand
}

// NewReading builds a reading from the latest sample and, when known, the
// sample before it.
func NewReading(latest Sample, previous *Sample, trend string, now time.Time) *Reading {
	delta := 0
	if previous != nil {
		delta = latest.Value - previous.Value
	}
	return &Reading{
		Glucose:     latest.Value,
		GlucoseMmol: MgdlToMmol(latest.Value),
		Trend:       trend,
		TrendArrow:  MapTrendArrow(trend),
		Delta:       delta,
		Timestamp:   latest.Timestamp,
		IsStale:     IsStaleAt(latest.Timestamp, now),
		Band:        Classify(latest.Value),
	}
}

// TrendArrows maps Nightscout direction names to text arrows.
var TrendArrows = map[string]string{
	"doubleup":      "^^",
	"singleup":      "^",
	"fortyfiveup":   "/",
	"flat":          "-",
	"fortyfivedown": "\\",
	"singledown":    "v",
	"doubledown":    "vv",
}

// MapTrendArrow converts a direction string to a display arrow.
func MapTrendArrow(trend string) string {
	if arrow, ok := TrendArrows[strings.ToLower(trend)]; ok {
		return arrow
	}
	return "?"
}

// IsStaleAt reports whether a reading taken at ts is stale at now.
func IsStaleAt(ts, now time.Time) bool {
	return now.Sub(ts) >= StaleThreshold
}

// MgdlToMmol converts mg/dL to mmol/L.
func MgdlToMmol(mgdl int) float64 {
	return float64(int(float64(mgdl)/18.0182*10+0.5)) / 10.0
}
