package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/graph"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

func TestComposeFrame(t *testing.T) {
	end := start.Add(6 * time.Hour)
	samples := []bloodsugar.Sample{
		bloodsugar.NewSample(110, end.Add(-90*time.Minute)),
		bloodsugar.NewSample(190, end.Add(-60*time.Minute)),
		bloodsugar.NewSample(260, end.Add(-30*time.Minute)),
		bloodsugar.NewSample(240, end.Add(-5*time.Minute)),
	}
	items := graph.ProjectGraphItems(samples,
		[]treatment.BolusEvent{treatment.NewBolusEvent(3, end.Add(-45*time.Minute))},
		[]treatment.CarbEvent{treatment.NewCarbEvent(40, end.Add(-80*time.Minute))},
	)
	prev := samples[2]
	v := View{
		Items:  items,
		Latest: bloodsugar.NewReading(samples[3], &prev, "FortyFiveDown", end),
		Start:  start,
		End:    end,
	}

	frame := ComposeFrame(v, domain.DefaultWidth, domain.DefaultHeight)

	require.Equal(t, domain.DefaultWidth, frame.Width)
	require.Equal(t, domain.DefaultHeight, frame.Height)
	assert.Equal(t, ColorDimGray, *frame.GetPixel(0, HeaderHeight))
	assert.True(t, hasColor(frame, 0, HeaderHeight+1, frame.Width-1, frame.Height-1, ColorBandRed))
	assert.True(t, hasColor(frame, 0, HeaderHeight+1, frame.Width-1, frame.Height-1, ColorBolus))
	assert.True(t, hasColor(frame, 0, HeaderHeight+1, frame.Width-1, frame.Height-1, ColorCarb))

	lines := strings.Split(strings.TrimSuffix(frame.ASCII(), "\n"), "\n")
	assert.Len(t, lines, domain.DefaultHeight)
}

func TestComposeFrameEmpty(t *testing.T) {
	frame := ComposeFrame(View{Start: start, End: start.Add(time.Hour)}, 40, 20)

	assert.True(t, hasColor(frame, 0, 0, 39, HeaderHeight-1, ColorStale), "shows NO DATA")
}

func TestComposeFrameSquare(t *testing.T) {
	end := start.Add(time.Hour)
	samples := []bloodsugar.Sample{
		bloodsugar.NewSample(120, end.Add(-30*time.Minute)),
		bloodsugar.NewSample(130, end.Add(-5*time.Minute)),
	}
	prev := samples[0]
	v := View{
		Items:  graph.ProjectGraphItems(samples, nil, nil),
		Latest: bloodsugar.NewReading(samples[1], &prev, "Flat", end),
		Start:  start,
		End:    end,
	}

	frame := ComposeFrame(v, 64, 64)

	require.Equal(t, 64, frame.Width)
	require.Equal(t, 64, frame.Height)
	assert.True(t, hasColor(frame, 0, 0, 63, HeaderHeight-1, ColorBandGreen), "header reading")
	assert.True(t, hasColor(frame, 0, HeaderHeight+1, 63, 63, ColorBandGreen), "graph points")
}
