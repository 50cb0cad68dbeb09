package graph

import "fmt"

// Marker scale factors: marker diameter is amount times scale.
const (
	BolusMarkerScale = 5.0
	CarbMarkerScale  = 0.5
)

// Annotation describes how a treatment item is drawn on the graph.
type Annotation struct {
	Label          string  // empty when the amount is too small to label
	MarkerDiameter float64 // zero for a plain marker
	Fill           string  // "bottom-half" for insulin, "top-half" for carbs
}

// Annotate returns the annotation for an item. EGV items and unknown kinds get
// a plain marker.
func Annotate(item Item) Annotation {
	switch k := item.Kind.(type) {
	case Bolus:
		a := Annotation{
			MarkerDiameter: k.Event.Amount * BolusMarkerScale,
			Fill:           "bottom-half",
		}
		if k.Event.Amount >= 1 {
			a.Label = FormatBolus(k.Event.Amount)
		}
		return a
	case Carb:
		a := Annotation{
			MarkerDiameter: float64(k.Event.Amount) * CarbMarkerScale,
			Fill:           "top-half",
		}
		if k.Event.Amount >= 1 {
			a.Label = FormatCarbs(k.Event.Amount)
		}
		return a
	default:
		return Annotation{}
	}
}

// FormatBolus formats insulin units, showing one decimal only when the
// fractional part is at least 0.1.
func FormatBolus(units float64) string {
	if units-float64(int(units)) >= 0.1 {
		return fmt.Sprintf("%.1f U", units)
	}
	return fmt.Sprintf("%.0f U", units)
}

// FormatCarbs formats grams of carbohydrate.
func FormatCarbs(grams int) string {
	return fmt.Sprintf("%d G", grams)
}
