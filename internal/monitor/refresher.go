// Package monitor keeps a periodically refreshed graph snapshot of the
// looper's recent glucose and treatments.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/graph"
	"github.com/jwulff/caregiver-go/internal/logger"
	"github.com/jwulff/caregiver-go/internal/metrics"
	"github.com/jwulff/caregiver-go/internal/storage"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

// LatestLookback is how far back the current reading is searched for.
const LatestLookback = 30 * time.Minute

// ErrNoData is returned when neither the source nor the cache has samples.
var ErrNoData = errors.New("no glucose data available")

// Source fetches remote glucose and treatment history.
type Source interface {
	FetchSamples(ctx context.Context, start, end time.Time) ([]bloodsugar.Sample, error)
	FetchBolusEvents(ctx context.Context, start, end time.Time) ([]treatment.BolusEvent, error)
	FetchCarbEvents(ctx context.Context, start, end time.Time) ([]treatment.CarbEvent, error)
}

// LatestSource is implemented by sources that report the current reading
// with its trend direction.
type LatestSource interface {
	FetchLatest(ctx context.Context, lookback time.Duration) (*bloodsugar.Reading, error)
}

// TreatmentSource is implemented by sources that return boluses and carbs
// from a single query, so both come from the same server state.
type TreatmentSource interface {
	FetchTreatmentEvents(ctx context.Context, start, end time.Time) ([]treatment.BolusEvent, []treatment.CarbEvent, error)
}

// Snapshot is one published refresh result. It is never mutated after
// publication.
type Snapshot struct {
	Items       []graph.Item
	Latest      *bloodsugar.Reading
	Start       time.Time
	End         time.Time
	RefreshedAt time.Time
	FromCache   bool
}

// Options configures a Refresher.
type Options struct {
	Window    time.Duration
	Interval  time.Duration
	Retention time.Duration
	Projector *graph.Projector
	Store     storage.Store // optional offline cache
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Refresher polls a Source and publishes Snapshots.
type Refresher struct {
	source    Source
	window    time.Duration
	interval  time.Duration
	retention time.Duration
	projector *graph.Projector
	store     storage.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot

	// generation orders refreshes; only the newest may publish.
	runMu      sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewRefresher creates a refresher over source.
func NewRefresher(source Source, opts Options) *Refresher {
	r := &Refresher{
		source:    source,
		window:    opts.Window,
		interval:  opts.Interval,
		retention: opts.Retention,
		projector: opts.Projector,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logger:    logger.OrNop(opts.Logger),
		now:       opts.Now,
	}
	if r.window <= 0 {
		r.window = 6 * time.Hour
	}
	if r.interval <= 0 {
		r.interval = 30 * time.Second
	}
	if r.projector == nil {
		r.projector = graph.NewProjector()
	}
	if r.metrics == nil {
		r.metrics = metrics.NewUnregistered()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Snapshot returns the last published snapshot, or nil before the first
// successful refresh.
func (r *Refresher) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("Starting refresher",
		zap.Duration("interval", r.interval),
		zap.Duration("window", r.window))

	r.refreshAndLog(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refreshAndLog(ctx)
		case <-ctx.Done():
			r.logger.Info("Stopping refresher")
			return ctx.Err()
		}
	}
}

func (r *Refresher) refreshAndLog(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("Refresh failed", zap.Error(err))
	}
}

// Refresh fetches the graph window, projects it and publishes the result.
// Starting a refresh cancels any refresh still in flight, so the snapshot
// always reflects the most recently started refresh that completed.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, gen := r.begin(ctx)
	defer r.end(gen)

	start := time.Now()
	snap, err := r.build(ctx)
	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			r.metrics.Refreshes.WithLabelValues(metrics.OutcomeCanceled).Inc()
			return nil, fmt.Errorf("refresh canceled: %w", ctx.Err())
		}
		r.metrics.Refreshes.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	if !r.publish(gen, snap) {
		r.metrics.Refreshes.WithLabelValues(metrics.OutcomeCanceled).Inc()
		return nil, fmt.Errorf("refresh superseded: %w", context.Canceled)
	}

	if snap.FromCache {
		r.metrics.Refreshes.WithLabelValues(metrics.OutcomeCached).Inc()
	} else {
		r.metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	return snap, nil
}

func (r *Refresher) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	r.cancel = cancel
	return ctx, r.generation
}

func (r *Refresher) end(gen uint64) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.generation == gen && r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// publish stores snap if gen is still the newest refresh.
func (r *Refresher) publish(gen uint64, snap *Snapshot) bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if gen != r.generation {
		return false
	}

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	counts := map[string]int{"egv": 0, "bolus": 0, "carb": 0}
	for _, item := range snap.Items {
		counts[item.Kind.Name()]++
	}
	for kind, n := range counts {
		r.metrics.GraphItems.WithLabelValues(kind).Set(float64(n))
	}
	r.metrics.LastRefresh.Set(float64(snap.RefreshedAt.Unix()))
	return true
}

func (r *Refresher) build(ctx context.Context) (*Snapshot, error) {
	end := r.now()
	begin := end.Add(-r.window)

	samples, boluses, carbs, err := r.fetch(ctx, begin, end)
	fromCache := false
	if err != nil {
		if ctx.Err() != nil || r.store == nil {
			return nil, err
		}
		r.logger.Warn("Fetch failed, using cached data", zap.Error(err))
		samples, boluses, carbs, err = r.loadCached(ctx, begin, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load cached data: %w", err)
		}
		if len(samples) == 0 {
			return nil, ErrNoData
		}
		fromCache = true
	} else {
		r.persist(ctx, samples, boluses, carbs, end)
	}

	items := r.projector.Project(samples, boluses, carbs)

	latest := latestReading(samples, end)
	if ls, ok := r.source.(LatestSource); ok && !fromCache {
		reading, err := ls.FetchLatest(ctx, LatestLookback)
		switch {
		case err != nil:
			r.logger.Warn("Failed to fetch latest reading", zap.Error(err))
		case reading != nil:
			latest = reading
		}
	}

	r.logger.Debug("Refreshed graph",
		zap.Int("samples", len(samples)),
		zap.Int("boluses", len(boluses)),
		zap.Int("carbs", len(carbs)),
		zap.Bool("from_cache", fromCache))

	return &Snapshot{
		Items:       items,
		Latest:      latest,
		Start:       begin,
		End:         end,
		RefreshedAt: end,
		FromCache:   fromCache,
	}, nil
}

func (r *Refresher) fetch(ctx context.Context, start, end time.Time) ([]bloodsugar.Sample, []treatment.BolusEvent, []treatment.CarbEvent, error) {
	samples, err := r.source.FetchSamples(ctx, start, end)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to fetch samples: %w", err)
	}
	if ts, ok := r.source.(TreatmentSource); ok {
		boluses, carbs, err := ts.FetchTreatmentEvents(ctx, start, end)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch treatments: %w", err)
		}
		return samples, boluses, carbs, nil
	}
	boluses, err := r.source.FetchBolusEvents(ctx, start, end)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to fetch boluses: %w", err)
	}
	carbs, err := r.source.FetchCarbEvents(ctx, start, end)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to fetch carbs: %w", err)
	}
	return samples, boluses, carbs, nil
}

func (r *Refresher) loadCached(ctx context.Context, start, end time.Time) ([]bloodsugar.Sample, []treatment.BolusEvent, []treatment.CarbEvent, error) {
	samples, err := r.store.QuerySamples(ctx, start, end)
	if err != nil {
		return nil, nil, nil, err
	}
	boluses, err := r.store.QueryBolusEvents(ctx, start, end)
	if err != nil {
		return nil, nil, nil, err
	}
	carbs, err := r.store.QueryCarbEvents(ctx, start, end)
	if err != nil {
		return nil, nil, nil, err
	}
	return samples, boluses, carbs, nil
}

// persist writes fetched data to the cache. Cache failures are logged and
// do not fail the refresh.
func (r *Refresher) persist(ctx context.Context, samples []bloodsugar.Sample, boluses []treatment.BolusEvent, carbs []treatment.CarbEvent, now time.Time) {
	if r.store == nil {
		return
	}
	if err := r.store.StoreSamples(ctx, samples); err != nil {
		r.logger.Warn("Failed to cache samples", zap.Error(err))
	}
	if err := r.store.StoreBolusEvents(ctx, boluses); err != nil {
		r.logger.Warn("Failed to cache boluses", zap.Error(err))
	}
	if err := r.store.StoreCarbEvents(ctx, carbs); err != nil {
		r.logger.Warn("Failed to cache carbs", zap.Error(err))
	}
	if r.retention > 0 {
		if err := r.store.DeleteOldData(ctx, now.Add(-r.retention)); err != nil {
			r.logger.Warn("Failed to prune cache", zap.Error(err))
		}
	}
}

// latestReading builds the current reading from the newest sample within
// LatestLookback of now.
func latestReading(samples []bloodsugar.Sample, now time.Time) *bloodsugar.Reading {
	sorted := bloodsugar.Series(samples).Sorted()
	if len(sorted) == 0 {
		return nil
	}

	latest := sorted[len(sorted)-1]
	if now.Sub(latest.Timestamp) > LatestLookback {
		return nil
	}

	var previous *bloodsugar.Sample
	if len(sorted) > 1 {
		p := sorted[len(sorted)-2]
		previous = &p
	}
	return bloodsugar.NewReading(latest, previous, "", now)
}
