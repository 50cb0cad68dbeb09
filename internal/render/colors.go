package render

import (
	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
)

// Common colors for the display.
var (
	ColorBlack = domain.NewRGB(0, 0, 0)
	ColorBg    = ColorBlack

	ColorWhite   = domain.NewRGB(255, 255, 255)
	ColorDimGray = domain.NewRGB(64, 64, 64)
	ColorStale   = domain.NewRGB(110, 110, 110)

	// Range band colors
	ColorBandGray   = domain.NewRGB(128, 128, 128)
	ColorBandGreen  = domain.NewRGB(0, 255, 0)
	ColorBandYellow = domain.NewRGB(255, 255, 0)
	ColorBandRed    = domain.NewRGB(255, 0, 0)

	// Treatment marker fills
	ColorBolus = domain.NewRGB(40, 110, 255)
	ColorCarb  = domain.NewRGB(255, 220, 0)

	// Chart colors
	ColorChartGrid      = domain.NewRGB(40, 40, 40)
	ColorChartThreshold = domain.NewRGB(70, 60, 0)
)

// ColorForBand returns the display color of a range band.
func ColorForBand(band bloodsugar.RangeBand) domain.RGB {
	switch band {
	case bloodsugar.BandGreen:
		return ColorBandGreen
	case bloodsugar.BandYellow:
		return ColorBandYellow
	case bloodsugar.BandRed:
		return ColorBandRed
	default:
		return ColorBandGray
	}
}

// ColorForGlucose classifies mgdl and returns its band color.
func ColorForGlucose(mgdl int) domain.RGB {
	return ColorForBand(bloodsugar.Classify(mgdl))
}

// LerpColor linearly interpolates between two colors.
func LerpColor(a, b domain.RGB, t float64) domain.RGB {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return domain.NewRGB(
		uint8(float64(a.R)+t*float64(int(b.R)-int(a.R))),
		uint8(float64(a.G)+t*float64(int(b.G)-int(a.G))),
		uint8(float64(a.B)+t*float64(int(b.B)-int(a.B))),
	)
}

// DimColor reduces the brightness of a color by a factor (0-1).
func DimColor(c domain.RGB, factor float64) domain.RGB {
	if factor <= 0 {
		return ColorBlack
	}
	if factor >= 1 {
		return c
	}
	return domain.NewRGB(
		uint8(float64(c.R)*factor),
		uint8(float64(c.G)*factor),
		uint8(float64(c.B)*factor),
	)
}
