package bloodsugar

import (
	"sort"
	"time"
)

// Series is a collection of samples in no particular order.
type Series []Sample

// Sorted returns a copy of the series ordered by timestamp ascending.
// Samples sharing a timestamp keep their input order.
func (s Series) Sorted() Series {
	sorted := make(Series, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// First returns the earliest sample.
func (s Series) First() (Sample, bool) {
	if len(s) == 0 {
		return Sample{}, false
	}
	first := s[0]
	for _, sample := range s[1:] {
		if sample.Timestamp.Before(first.Timestamp) {
			first = sample
		}
	}
	return first, true
}

// Last returns the latest sample.
func (s Series) Last() (Sample, bool) {
	if len(s) == 0 {
		return Sample{}, false
	}
	last := s[0]
	for _, sample := range s[1:] {
		if !sample.Timestamp.Before(last.Timestamp) {
			last = sample
		}
	}
	return last, true
}

// LatestBefore returns the greatest sample strictly before at.
func (s Series) LatestBefore(at time.Time) (Sample, bool) {
	var best Sample
	found := false
	for _, sample := range s {
		if !sample.Timestamp.Before(at) {
			continue
		}
		if !found || !sample.Timestamp.Before(best.Timestamp) {
			best = sample
			found = true
		}
	}
	return best, found
}

// EarliestAfter returns the least sample strictly after at.
func (s Series) EarliestAfter(at time.Time) (Sample, bool) {
	var best Sample
	found := false
	for _, sample := range s {
		if !sample.Timestamp.After(at) {
			continue
		}
		if !found || sample.Timestamp.Before(best.Timestamp) {
			best = sample
			found = true
		}
	}
	return best, found
}

// OutOfRange reports whether at falls before the first sample or after the
// last one. An empty series covers nothing.
func (s Series) OutOfRange(at time.Time) bool {
	first, ok := s.First()
	if !ok {
		return true
	}
	last, _ := s.Last()
	return at.Before(first.Timestamp) || at.After(last.Timestamp)
}

// Values returns the sample values in series order.
func (s Series) Values() []int {
	values := make([]int, len(s))
	for i, sample := range s {
		values[i] = sample.Value
	}
	return values
}
