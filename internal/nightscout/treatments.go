package nightscout

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/treatment"
)

// maxTreatments caps a single treatments query.
const maxTreatments = 1000

// Treatment is a Nightscout treatment record. Only the fields used for
// boluses and carbs are decoded.
type Treatment struct {
	ID        string   `json:"_id"`
	EventType string   `json:"eventType"`
	CreatedAt string   `json:"created_at"`
	Timestamp string   `json:"timestamp"`
	Mills     int64    `json:"mills"`
	Insulin   *float64 `json:"insulin"`
	Carbs     *float64 `json:"carbs"`
	Duration  float64  `json:"duration"`
	EnteredBy string   `json:"enteredBy"`
	Notes     string   `json:"notes"`
}

// Time returns the treatment time from mills, timestamp or created_at, in
// that order. ok is false when none of them is usable.
func (t Treatment) Time() (time.Time, bool) {
	if t.Mills > 0 {
		return time.UnixMilli(t.Mills), true
	}
	for _, s := range []string{t.Timestamp, t.CreatedAt} {
		if s == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// IsBolus reports whether the treatment delivered insulin.
func (t Treatment) IsBolus() bool {
	return t.Insulin != nil && *t.Insulin > 0
}

// HasCarbs reports whether the treatment recorded carbohydrates.
func (t Treatment) HasCarbs() bool {
	return t.Carbs != nil && *t.Carbs > 0
}

// FetchTreatments fetches treatments created between start and end.
func (c *Client) FetchTreatments(ctx context.Context, start, end time.Time) ([]Treatment, error) {
	query := url.Values{}
	query.Set("find[created_at][$gte]", start.UTC().Format(time.RFC3339))
	query.Set("find[created_at][$lte]", end.UTC().Format(time.RFC3339))
	query.Set("count", fmt.Sprint(maxTreatments))

	var treatments []Treatment
	if err := c.getJSON(ctx, TreatmentsPath, query, &treatments); err != nil {
		return nil, fmt.Errorf("failed to fetch treatments: %w", err)
	}
	return treatments, nil
}

// FetchTreatmentEvents fetches the treatments between start and end once and
// splits them into boluses and carb entries.
func (c *Client) FetchTreatmentEvents(ctx context.Context, start, end time.Time) ([]treatment.BolusEvent, []treatment.CarbEvent, error) {
	treatments, err := c.FetchTreatments(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	boluses, carbs := c.splitTreatments(treatments)
	return boluses, carbs, nil
}

// FetchBolusEvents fetches insulin boluses between start and end.
func (c *Client) FetchBolusEvents(ctx context.Context, start, end time.Time) ([]treatment.BolusEvent, error) {
	boluses, _, err := c.FetchTreatmentEvents(ctx, start, end)
	return boluses, err
}

// FetchCarbEvents fetches carb entries between start and end.
func (c *Client) FetchCarbEvents(ctx context.Context, start, end time.Time) ([]treatment.CarbEvent, error) {
	_, carbs, err := c.FetchTreatmentEvents(ctx, start, end)
	return carbs, err
}

// splitTreatments extracts boluses and carb entries. A meal bolus with both
// insulin and carbs yields one of each. Gram amounts are rounded to whole
// grams. Treatments without a usable time are skipped with a warning.
func (c *Client) splitTreatments(treatments []Treatment) ([]treatment.BolusEvent, []treatment.CarbEvent) {
	var (
		boluses []treatment.BolusEvent
		carbs   []treatment.CarbEvent
	)
	for _, t := range treatments {
		if !t.IsBolus() && !t.HasCarbs() {
			continue
		}
		ts, ok := t.Time()
		if !ok {
			c.logger.Warn("Skipping treatment without a valid time",
				zap.String("id", t.ID),
				zap.String("event_type", t.EventType),
				zap.String("created_at", t.CreatedAt),
			)
			continue
		}
		if t.IsBolus() {
			boluses = append(boluses, treatment.NewBolusEvent(*t.Insulin, ts))
		}
		if t.HasCarbs() {
			carbs = append(carbs, treatment.NewCarbEvent(int(math.Round(*t.Carbs)), ts))
		}
	}
	return boluses, carbs
}
