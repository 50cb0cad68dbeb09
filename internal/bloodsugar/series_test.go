package bloodsugar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesSorted(t *testing.T) {
	series := Series{
		NewSample(100, secs(120)),
		NewSample(90, secs(0)),
		NewSample(95, secs(60)),
	}

	sorted := series.Sorted()

	assert.Equal(t, []int{90, 95, 100}, sorted.Values())
	assert.Equal(t, []int{100, 90, 95}, series.Values(), "input left untouched")
}

func TestSeriesBoundaries(t *testing.T) {
	series := Series{
		NewSample(150, secs(300)),
		NewSample(110, secs(0)),
		NewSample(130, secs(600)),
	}

	prev, ok := series.LatestBefore(secs(400))
	assert.True(t, ok)
	assert.Equal(t, 150, prev.Value)

	next, ok := series.EarliestAfter(secs(400))
	assert.True(t, ok)
	assert.Equal(t, 130, next.Value)

	_, ok = series.LatestBefore(secs(0))
	assert.False(t, ok, "strictly before")

	_, ok = series.EarliestAfter(secs(600))
	assert.False(t, ok, "strictly after")

	first, ok := series.First()
	assert.True(t, ok)
	assert.Equal(t, 110, first.Value)

	last, ok := series.Last()
	assert.True(t, ok)
	assert.Equal(t, 130, last.Value)
}

func TestSeriesOutOfRange(t *testing.T) {
	series := Series{NewSample(110, secs(0)), NewSample(130, secs(600))}

	assert.True(t, series.OutOfRange(secs(-1)))
	assert.False(t, series.OutOfRange(secs(0)))
	assert.False(t, series.OutOfRange(secs(300)))
	assert.False(t, series.OutOfRange(secs(600)))
	assert.True(t, series.OutOfRange(secs(601)))
	assert.True(t, Series{}.OutOfRange(secs(0)))
}

func TestSeriesEmpty(t *testing.T) {
	var series Series

	_, ok := series.First()
	assert.False(t, ok)
	_, ok = series.Last()
	assert.False(t, ok)
	_, ok = series.LatestBefore(secs(0))
	assert.False(t, ok)
	_, ok = series.EarliestAfter(secs(0))
	assert.False(t, ok)
	assert.Empty(t, series.Sorted())
}
