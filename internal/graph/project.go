package graph

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

// DefaultFallbackValue is the y value given to treatments when there are no
// samples to anchor them to. It keeps the markers visible near the top of a
// typical chart.
const DefaultFallbackValue = 390

// Projector turns samples and events into graph items.
type Projector struct {
	FallbackValue int
	NewID         func() string
}

// NewProjector creates a projector with the default fallback and uuid ids.
func NewProjector() *Projector {
	return &Projector{
		FallbackValue: DefaultFallbackValue,
		NewID:         uuid.NewString,
	}
}

// ProjectGraphItems projects with the default projector.
func ProjectGraphItems(samples []bloodsugar.Sample, boluses []treatment.BolusEvent, carbs []treatment.CarbEvent) []Item {
	return NewProjector().Project(samples, boluses, carbs)
}

// Project builds the items for one refresh: samples first, then boluses,
// then carbs, each in input order.
func (p *Projector) Project(samples []bloodsugar.Sample, boluses []treatment.BolusEvent, carbs []treatment.CarbEvent) []Item {
	items := make([]Item, 0, len(samples)+len(boluses)+len(carbs))

	for _, s := range samples {
		items = append(items, Item{
			ID:          p.id(),
			Kind:        EGV{},
			Value:       s.Value,
			DisplayTime: s.Timestamp,
		})
	}

	for _, b := range boluses {
		items = append(items, Item{
			ID:          p.id(),
			Kind:        Bolus{Event: b},
			Value:       p.anchor(samples, b.Timestamp),
			DisplayTime: b.Timestamp,
		})
	}

	for _, c := range carbs {
		items = append(items, Item{
			ID:          p.id(),
			Kind:        Carb{Event: c},
			Value:       p.anchor(samples, c.Timestamp),
			DisplayTime: c.Timestamp,
		})
	}

	return items
}

func (p *Projector) anchor(samples []bloodsugar.Sample, at time.Time) int {
	if v, ok := bloodsugar.Anchor(samples, at); ok {
		return v
	}
	return p.FallbackValue
}

func (p *Projector) id() string {
	if p.NewID == nil {
		return uuid.NewString()
	}
	return p.NewID()
}
