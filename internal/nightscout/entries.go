package nightscout

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
)

// Entry is a sensor glucose entry as stored by Nightscout.
type Entry struct {
	ID         string `json:"_id"`
	SGV        int    `json:"sgv"`
	Date       int64  `json:"date"` // Unix milliseconds
	DateString string `json:"dateString"`
	Direction  string `json:"direction"`
	Type       string `json:"type"`
}

// Time returns the entry time. ok is false when the entry carries neither
// a date nor a parseable dateString.
func (e Entry) Time() (time.Time, bool) {
	if e.Date > 0 {
		return time.UnixMilli(e.Date), true
	}
	t, err := time.Parse(time.RFC3339, e.DateString)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Sample converts the entry to a glucose sample. ok is false when the entry
// has no usable time.
func (e Entry) Sample() (bloodsugar.Sample, bool) {
	ts, ok := e.Time()
	return bloodsugar.NewSample(e.SGV, ts), ok
}

// datedEntry is an entry that passed validation.
type datedEntry struct {
	sample    bloodsugar.Sample
	direction string
}

// usableEntries drops entries without a glucose value and, with a warning,
// entries without a usable time.
func (c *Client) usableEntries(entries []Entry) []datedEntry {
	usable := make([]datedEntry, 0, len(entries))
	for _, e := range entries {
		if e.SGV <= 0 {
			continue
		}
		sample, ok := e.Sample()
		if !ok {
			c.logger.Warn("Skipping entry without a valid date",
				zap.String("id", e.ID),
				zap.Int("sgv", e.SGV),
				zap.String("date_string", e.DateString),
			)
			continue
		}
		usable = append(usable, datedEntry{sample: sample, direction: e.Direction})
	}
	return usable
}

// FetchEntries fetches sensor entries with start <= date <= end, newest first
// as Nightscout returns them.
func (c *Client) FetchEntries(ctx context.Context, start, end time.Time) ([]Entry, error) {
	query := url.Values{}
	query.Set("find[date][$gte]", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("find[date][$lte]", strconv.FormatInt(end.UnixMilli(), 10))
	query.Set("count", strconv.Itoa(entryCount(start, end)))

	var entries []Entry
	if err := c.getJSON(ctx, EntriesPath, query, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	return entries, nil
}

// FetchSamples fetches the glucose samples between start and end. The order
// of the returned samples is whatever the server used.
func (c *Client) FetchSamples(ctx context.Context, start, end time.Time) ([]bloodsugar.Sample, error) {
	entries, err := c.FetchEntries(ctx, start, end)
	if err != nil {
		return nil, err
	}

	usable := c.usableEntries(entries)
	samples := make([]bloodsugar.Sample, len(usable))
	for i, e := range usable {
		samples[i] = e.sample
	}
	return samples, nil
}

// FetchLatest returns the newest reading within lookback, with its delta to
// the previous entry. It returns nil without error when nothing was found.
func (c *Client) FetchLatest(ctx context.Context, lookback time.Duration) (*bloodsugar.Reading, error) {
	now := c.now()
	entries, err := c.FetchEntries(ctx, now.Add(-lookback), now)
	if err != nil {
		return nil, err
	}

	valid := c.usableEntries(entries)
	if len(valid) == 0 {
		return nil, nil
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].sample.Timestamp.After(valid[j].sample.Timestamp)
	})

	var previous *bloodsugar.Sample
	if len(valid) > 1 {
		previous = &valid[1].sample
	}
	return bloodsugar.NewReading(valid[0].sample, previous, valid[0].direction, now), nil
}

// entryCount bounds the number of entries for a window, assuming no more
// than one reading per minute.
func entryCount(start, end time.Time) int {
	n := int(end.Sub(start)/time.Minute) + 1
	if n < 2 {
		return 2
	}
	return n
}
