// Package graph projects glucose samples and treatment events into a flat list
// of plottable items.
package graph

import (
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

// Kind is the closed set of item kinds: EGV, Bolus and Carb.
type Kind interface {
	Name() string
	isKind()
}

// EGV marks an item that is a glucose sample.
type EGV struct{}

// Bolus marks an item anchored from a bolus event.
type Bolus struct {
	Event treatment.BolusEvent
}

// Carb marks an item anchored from a carb event.
type Carb struct {
	Event treatment.CarbEvent
}

func (EGV) Name() string   { return "egv" }
func (Bolus) Name() string { return "bolus" }
func (Carb) Name() string  { return "carb" }

func (EGV) isKind()   {}
func (Bolus) isKind() {}
func (Carb) isKind()  {}

// Item is one point on the treatment graph. For EGV items Value is the sample
// itself; for treatments it is the glucose anchored at the event time.
type Item struct {
	ID          string
	Kind        Kind
	Value       int
	DisplayTime time.Time
}

// Band returns the color band for the item's y value.
func (i Item) Band() bloodsugar.RangeBand {
	return bloodsugar.Classify(i.Value)
}

// IsTreatment reports whether the item came from a bolus or carb event.
func (i Item) IsTreatment() bool {
	switch i.Kind.(type) {
	case Bolus, Carb:
		return true
	default:
		return false
	}
}
