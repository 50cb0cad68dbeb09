package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
)

func TestColorForBand(t *testing.T) {
	assert.Equal(t, ColorBandGray, ColorForBand(bloodsugar.BandGray))
	assert.Equal(t, ColorBandGreen, ColorForBand(bloodsugar.BandGreen))
	assert.Equal(t, ColorBandYellow, ColorForBand(bloodsugar.BandYellow))
	assert.Equal(t, ColorBandRed, ColorForBand(bloodsugar.BandRed))
	assert.Equal(t, ColorBandGray, ColorForBand(bloodsugar.RangeBand(42)))
}

func TestColorForGlucose(t *testing.T) {
	tests := []struct {
		mgdl int
		want domain.RGB
	}{
		{-1, ColorBandGray},
		{0, ColorBandGreen},
		{179, ColorBandGreen},
		{180, ColorBandYellow},
		{249, ColorBandYellow},
		{250, ColorBandRed},
		{390, ColorBandRed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorForGlucose(tt.mgdl), "mgdl %d", tt.mgdl)
	}
}

func TestLerpColor(t *testing.T) {
	black := domain.NewRGB(0, 0, 0)
	white := domain.NewRGB(255, 255, 255)

	assert.Equal(t, black, LerpColor(black, white, 0))
	assert.Equal(t, white, LerpColor(black, white, 1))
	assert.Equal(t, domain.NewRGB(127, 127, 127), LerpColor(black, white, 0.5))
	assert.Equal(t, black, LerpColor(black, white, -0.5))
	assert.Equal(t, white, LerpColor(black, white, 1.5))
}

func TestDimColor(t *testing.T) {
	c := domain.NewRGB(200, 100, 50)

	assert.Equal(t, c, DimColor(c, 1.0))
	assert.Equal(t, domain.NewRGB(100, 50, 25), DimColor(c, 0.5))
	assert.Equal(t, ColorBlack, DimColor(c, 0.0))
	assert.Equal(t, c, DimColor(c, 1.5))
	assert.Equal(t, ColorBlack, DimColor(c, -0.5))
}
