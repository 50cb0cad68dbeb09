package bloodsugar

import "time"

// Anchor estimates the glucose value at an arbitrary time from a series of
// samples. Between two samples the value is linearly interpolated; outside
// the sampled range it is clamped to the nearest end. With a single sample
// that sample's value is returned. An empty series yields ok == false and
// callers choose their own fallback.
//
// The interpolated delta is truncated toward zero, so 100 -> 201 at the
// midpoint anchors at 150, not 151.
func Anchor(samples []Sample, at time.Time) (value int, ok bool) {
	series := Series(samples)
	if len(series) < 2 {
		if len(series) == 1 {
			return series[0].Value, true
		}
		return 0, false
	}

	prev, hasPrev := series.LatestBefore(at)
	if !hasPrev {
		first, _ := series.First()
		return first.Value, true
	}

	next, hasNext := series.EarliestAfter(at)
	if !hasNext {
		last, _ := series.Last()
		return last.Value, true
	}

	return interpolate(prev, next, at), true
}

// interpolate returns prev.Value plus the truncated share of the change
// towards next at time at.
func interpolate(prev, next Sample, at time.Time) int {
	span := next.Timestamp.Sub(prev.Timestamp).Seconds()
	if span == 0 {
		return prev.Value
	}
	fraction := at.Sub(prev.Timestamp).Seconds() / span
	return prev.Value + int(float64(next.Value-prev.Value)*fraction)
}
