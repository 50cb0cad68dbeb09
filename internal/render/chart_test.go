package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/graph"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

var start = time.Date(2024, 1, 22, 11, 0, 0, 0, time.UTC)

func testConfig() GraphConfig {
	return NewGraphConfig(0, 0, 61, 37, start, start.Add(time.Hour))
}

func egv(value int, offset time.Duration) graph.Item {
	return graph.Item{ID: "egv", Kind: graph.EGV{}, Value: value, DisplayTime: start.Add(offset)}
}

func countLit(frame *domain.Frame, skip domain.RGB) int {
	n := 0
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			p := frame.GetPixel(x, y)
			if p.Brightness() > 0 && !p.Equals(skip) {
				n++
			}
		}
	}
	return n
}

func TestNewGraphConfigDefaults(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, DefaultMinGlucose, cfg.MinGlucose)
	assert.Equal(t, DefaultMaxGlucose, cfg.MaxGlucose)
	assert.Equal(t, []int{180, 250}, cfg.Thresholds)
	assert.Equal(t, DefaultMarkerScale, cfg.MarkerScale)
}

func TestGlucoseToY(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		glucose int
		want    int
	}{
		{400, 0},
		{40, 36},
		{220, 18},
		{500, 0},  // clamped
		{390, 1},  // fallback value sits near the top
		{10, 36},  // clamped
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, glucoseToY(tt.glucose, cfg), "glucose %d", tt.glucose)
	}
}

func TestTimeToX(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, 0, timeToX(start, cfg))
	assert.Equal(t, 30, timeToX(start.Add(30*time.Minute), cfg))
	assert.Equal(t, 60, timeToX(start.Add(time.Hour), cfg))
}

func TestMarkerRadius(t *testing.T) {
	assert.Equal(t, 1, MarkerRadius(0, DefaultMarkerScale))
	assert.Equal(t, 1, MarkerRadius(10, DefaultMarkerScale))  // 2 U bolus
	assert.Equal(t, 2, MarkerRadius(15, DefaultMarkerScale))  // 30 G carbs
	assert.Equal(t, 3, MarkerRadius(100, DefaultMarkerScale)) // clamped
}

func TestRenderGraphColorsPointsByBand(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := testConfig()
	cfg.Thresholds = []int{}

	items := []graph.Item{
		egv(120, 10*time.Minute),
		egv(220, 30*time.Minute),
		egv(300, 50*time.Minute),
	}
	RenderGraph(frame, items, cfg)

	for _, item := range items {
		x, y := itemPosition(item, cfg)
		p := frame.GetPixel(x, y)
		require.NotNil(t, p)
		assert.Equal(t, ColorForBand(item.Band()), *p, "value %d", item.Value)
	}
	assert.Greater(t, countLit(frame, ColorBlack), len(items), "points should be connected")
}

func TestRenderGraphThresholdLines(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := testConfig()

	RenderGraph(frame, nil, cfg)

	for _, threshold := range []int{180, 250} {
		y := glucoseToY(threshold, cfg)
		assert.Equal(t, ColorChartThreshold, *frame.GetPixel(0, y))
		assert.Equal(t, ColorChartThreshold, *frame.GetPixel(60, y))
	}
}

func TestRenderGraphSkipsItemsOutsideWindow(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := testConfig()

	RenderGraph(frame, []graph.Item{
		egv(120, -10*time.Minute),
		egv(130, 70*time.Minute),
	}, cfg)

	assert.Equal(t, 0, countLit(frame, ColorChartThreshold))
}

func TestRenderGraphEmptyWindow(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := NewGraphConfig(0, 0, 61, 37, start, start)

	RenderGraph(frame, []graph.Item{egv(120, 0)}, cfg)

	assert.Equal(t, 0, countLit(frame, ColorBlack))
}

func TestRenderGraphTreatmentMarkers(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := testConfig()
	cfg.Thresholds = []int{}

	bolus := graph.Item{
		ID:          "bolus",
		Kind:        graph.Bolus{Event: treatment.NewBolusEvent(2, start.Add(20*time.Minute))},
		Value:       220,
		DisplayTime: start.Add(20 * time.Minute),
	}
	carb := graph.Item{
		ID:          "carb",
		Kind:        graph.Carb{Event: treatment.NewCarbEvent(30, start.Add(40*time.Minute))},
		Value:       100,
		DisplayTime: start.Add(40 * time.Minute),
	}
	RenderGraph(frame, []graph.Item{bolus, carb}, cfg)

	bx, by := itemPosition(bolus, cfg)
	assert.Equal(t, ColorBandYellow, *frame.GetPixel(bx, by), "center keeps the band color")
	assert.Equal(t, ColorBolus, *frame.GetPixel(bx, by+1), "insulin fills the bottom half")
	assert.Equal(t, ColorBlack, *frame.GetPixel(bx, by-1))

	cx, cy := itemPosition(carb, cfg)
	assert.Equal(t, ColorBandGreen, *frame.GetPixel(cx, cy))
	assert.Equal(t, ColorCarb, *frame.GetPixel(cx, cy-2), "carbs fill the top half")
	assert.Equal(t, ColorBlack, *frame.GetPixel(cx, cy+1))
}

func TestRenderGraphProjectedItems(t *testing.T) {
	frame := domain.NewFrame(61, 37)
	cfg := testConfig()

	items := graph.ProjectGraphItems(
		[]bloodsugar.Sample{
			bloodsugar.NewSample(150, start.Add(10*time.Minute)),
			bloodsugar.NewSample(200, start.Add(20*time.Minute)),
		},
		[]treatment.BolusEvent{treatment.NewBolusEvent(1.5, start.Add(15*time.Minute))},
		nil,
	)
	require.Len(t, items, 3)
	assert.Equal(t, 175, items[2].Value)

	RenderGraph(frame, items, cfg)

	x, y := itemPosition(items[2], cfg)
	assert.Equal(t, ColorBandGreen, *frame.GetPixel(x, y))
}
