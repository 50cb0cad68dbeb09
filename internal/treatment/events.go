// Package treatment defines bolus and carb events and the remote commands a
// caregiver can issue.
package treatment

import "time"

// BolusEvent is an insulin dose recorded on the patient's pump.
type BolusEvent struct {
	Amount    float64 // units
	Timestamp time.Time
}

// CarbEvent is a carbohydrate entry.
type CarbEvent struct {
	Amount    int // grams
	Timestamp time.Time
}

// NewBolusEvent creates a bolus event.
func NewBolusEvent(amount float64, timestamp time.Time) BolusEvent {
	return BolusEvent{Amount: amount, Timestamp: timestamp}
}

// NewCarbEvent creates a carb event.
func NewCarbEvent(amount int, timestamp time.Time) CarbEvent {
	return CarbEvent{Amount: amount, Timestamp: timestamp}
}
