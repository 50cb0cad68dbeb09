package graph

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

var base = time.Date(2024, 1, 22, 8, 0, 0, 0, time.UTC)

func minutes(m int) time.Time {
	return base.Add(time.Duration(m) * time.Minute)
}

type itemKey struct {
	kind  string
	value int
	at    time.Time
}

func keys(items []Item) []itemKey {
	out := make([]itemKey, len(items))
	for i, item := range items {
		out[i] = itemKey{kind: item.Kind.Name(), value: item.Value, at: item.DisplayTime}
	}
	return out
}

func TestProjectEmptySamplesUsesFallback(t *testing.T) {
	items := ProjectGraphItems(nil, []treatment.BolusEvent{treatment.NewBolusEvent(2, minutes(10))}, nil)

	require.Len(t, items, 1)
	assert.Equal(t, 390, items[0].Value)
	assert.IsType(t, Bolus{}, items[0].Kind)
	assert.Equal(t, minutes(10), items[0].DisplayTime)
}

func TestProjectCustomFallback(t *testing.T) {
	p := NewProjector()
	p.FallbackValue = 200

	items := p.Project(nil, nil, []treatment.CarbEvent{treatment.NewCarbEvent(30, minutes(0))})

	require.Len(t, items, 1)
	assert.Equal(t, 200, items[0].Value)
}

func TestProjectSamplesAndEvents(t *testing.T) {
	samples := []bloodsugar.Sample{
		bloodsugar.NewSample(100, minutes(0)),
		bloodsugar.NewSample(200, minutes(10)),
	}
	boluses := []treatment.BolusEvent{treatment.NewBolusEvent(1.5, minutes(5))}
	carbs := []treatment.CarbEvent{
		treatment.NewCarbEvent(20, minutes(-5)),
		treatment.NewCarbEvent(40, minutes(15)),
	}

	items := ProjectGraphItems(samples, boluses, carbs)

	assert.Equal(t, []itemKey{
		{"egv", 100, minutes(0)},
		{"egv", 200, minutes(10)},
		{"bolus", 150, minutes(5)},
		{"carb", 100, minutes(-5)},
		{"carb", 200, minutes(15)},
	}, keys(items))

	bolus, ok := items[2].Kind.(Bolus)
	require.True(t, ok)
	assert.Equal(t, 1.5, bolus.Event.Amount, "treatment amount carried in the payload")

	carb, ok := items[4].Kind.(Carb)
	require.True(t, ok)
	assert.Equal(t, 40, carb.Event.Amount)
}

func TestProjectIsIdempotent(t *testing.T) {
	samples := []bloodsugar.Sample{
		bloodsugar.NewSample(180, minutes(10)),
		bloodsugar.NewSample(120, minutes(0)),
		bloodsugar.NewSample(240, minutes(20)),
	}
	boluses := []treatment.BolusEvent{treatment.NewBolusEvent(3, minutes(12))}
	carbs := []treatment.CarbEvent{treatment.NewCarbEvent(25, minutes(3))}

	first := ProjectGraphItems(samples, boluses, carbs)
	second := ProjectGraphItems(samples, boluses, carbs)

	assert.Equal(t, keys(first), keys(second))
	assert.NotEqual(t, first[0].ID, second[0].ID, "ids are freshly generated")
}

func TestProjectUniqueIDs(t *testing.T) {
	n := 0
	p := &Projector{
		FallbackValue: DefaultFallbackValue,
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	}

	items := p.Project(
		[]bloodsugar.Sample{bloodsugar.NewSample(100, minutes(0))},
		[]treatment.BolusEvent{treatment.NewBolusEvent(1, minutes(1))},
		[]treatment.CarbEvent{treatment.NewCarbEvent(10, minutes(2))},
	)

	require.Len(t, items, 3)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, "item-2", items[1].ID)
	assert.Equal(t, "item-3", items[2].ID)
}

func TestProjectorWithoutIDFunc(t *testing.T) {
	p := &Projector{FallbackValue: DefaultFallbackValue}
	items := p.Project([]bloodsugar.Sample{bloodsugar.NewSample(100, minutes(0))}, nil, nil)

	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
}

func TestItemBandAndTreatment(t *testing.T) {
	egv := Item{Kind: EGV{}, Value: 185}
	assert.Equal(t, bloodsugar.BandYellow, egv.Band())
	assert.False(t, egv.IsTreatment())

	bolus := Item{Kind: Bolus{}, Value: 260}
	assert.Equal(t, bloodsugar.BandRed, bolus.Band())
	assert.True(t, bolus.IsTreatment())

	assert.True(t, Item{Kind: Carb{}}.IsTreatment())
}
