package render

import (
	"math"
	"sort"
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/graph"
)

// Glucose axis defaults in mg/dL.
const (
	DefaultMinGlucose = 40
	DefaultMaxGlucose = 400
)

// DefaultMarkerScale converts an annotation diameter to a marker radius in
// pixels.
const DefaultMarkerScale = 0.1

// Marker radius bounds in pixels.
const (
	MinMarkerRadius = 1
	MaxMarkerRadius = 3
)

// GraphConfig positions a graph inside a frame.
type GraphConfig struct {
	X           int
	Y           int
	Width       int
	Height      int
	Start       time.Time
	End         time.Time
	MinGlucose  int
	MaxGlucose  int
	Thresholds  []int   // horizontal guide lines
	MarkerScale float64 // pixels of radius per unit of annotation diameter
}

// NewGraphConfig creates a graph config covering start to end.
func NewGraphConfig(x, y, width, height int, start, end time.Time) GraphConfig {
	cfg := GraphConfig{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Start:  start,
		End:    end,
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults applies default values to zero fields.
func (c *GraphConfig) ApplyDefaults() {
	if c.MinGlucose == 0 {
		c.MinGlucose = DefaultMinGlucose
	}
	if c.MaxGlucose == 0 {
		c.MaxGlucose = DefaultMaxGlucose
	}
	if c.Thresholds == nil {
		c.Thresholds = []int{bloodsugar.ThresholdHigh, bloodsugar.ThresholdVeryHigh}
	}
	if c.MarkerScale == 0 {
		c.MarkerScale = DefaultMarkerScale
	}
}

// RenderGraph draws glucose points colored by range band, connected by a dim
// line, with bolus and carb markers on top. Items outside Start..End are
// skipped.
func RenderGraph(frame *domain.Frame, items []graph.Item, cfg GraphConfig) {
	cfg.ApplyDefaults()
	if !cfg.End.After(cfg.Start) {
		return
	}

	for _, threshold := range cfg.Thresholds {
		frame.DrawHLine(cfg.X, cfg.X+cfg.Width-1, glucoseToY(threshold, cfg), ColorChartThreshold)
	}

	var egvs, treatments []graph.Item
	for _, item := range items {
		if item.DisplayTime.Before(cfg.Start) || item.DisplayTime.After(cfg.End) {
			continue
		}
		if item.IsTreatment() {
			treatments = append(treatments, item)
		} else {
			egvs = append(egvs, item)
		}
	}
	sort.SliceStable(egvs, func(i, j int) bool {
		return egvs[i].DisplayTime.Before(egvs[j].DisplayTime)
	})

	// Line first so the points sit on top of it.
	for i := 1; i < len(egvs); i++ {
		x0, y0 := itemPosition(egvs[i-1], cfg)
		x1, y1 := itemPosition(egvs[i], cfg)
		frame.DrawLine(x0, y0, x1, y1, DimColor(ColorForBand(egvs[i].Band()), 0.35))
	}
	for _, item := range egvs {
		x, y := itemPosition(item, cfg)
		frame.SetPixel(x, y, ColorForBand(item.Band()))
	}

	for _, item := range treatments {
		drawMarker(frame, item, cfg)
	}
}

// drawMarker draws a half-filled disc sized by the item's annotation: insulin
// fills the bottom half and carbs the top half, as on the caregiver graph.
func drawMarker(frame *domain.Frame, item graph.Item, cfg GraphConfig) {
	x, y := itemPosition(item, cfg)
	a := graph.Annotate(item)

	radius := MarkerRadius(a.MarkerDiameter, cfg.MarkerScale)
	switch item.Kind.(type) {
	case graph.Bolus:
		frame.DrawDisc(x, y, radius, domain.BottomHalf, ColorBolus)
	case graph.Carb:
		frame.DrawDisc(x, y, radius, domain.TopHalf, ColorCarb)
	default:
		frame.DrawDisc(x, y, MinMarkerRadius, domain.BottomHalf, ColorBolus)
	}
	frame.SetPixel(x, y, ColorForBand(item.Band()))
}

// MarkerRadius converts an annotation diameter to a clamped pixel radius.
func MarkerRadius(diameter, scale float64) int {
	r := int(math.Round(diameter * scale))
	if r < MinMarkerRadius {
		return MinMarkerRadius
	}
	if r > MaxMarkerRadius {
		return MaxMarkerRadius
	}
	return r
}

func itemPosition(item graph.Item, cfg GraphConfig) (int, int) {
	return timeToX(item.DisplayTime, cfg), glucoseToY(item.Value, cfg)
}

// timeToX converts a timestamp to an X pixel position.
func timeToX(t time.Time, cfg GraphConfig) int {
	span := cfg.End.Sub(cfg.Start)
	if span <= 0 {
		return cfg.X
	}
	offset := t.Sub(cfg.Start)
	return cfg.X + int(math.Round(float64(offset)/float64(span)*float64(cfg.Width-1)))
}

// glucoseToY converts a glucose value to a Y pixel position. Values outside
// the axis are clamped to its edges.
func glucoseToY(glucose int, cfg GraphConfig) int {
	glucoseRange := cfg.MaxGlucose - cfg.MinGlucose
	if glucoseRange <= 0 {
		return cfg.Y + cfg.Height/2
	}

	if glucose < cfg.MinGlucose {
		glucose = cfg.MinGlucose
	}
	if glucose > cfg.MaxGlucose {
		glucose = cfg.MaxGlucose
	}

	// Higher glucose = lower Y (top of chart)
	normalized := float64(glucose-cfg.MinGlucose) / float64(glucoseRange)
	return cfg.Y + cfg.Height - 1 - int(math.Round(normalized*float64(cfg.Height-1)))
}
