package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/storage"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

var base = time.Date(2024, 1, 22, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestNewFileStore(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFileStore(tmpDir + "/test.db")
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestFileStorePersists(t *testing.T) {
	path := t.TempDir() + "/persist.db"
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.StoreSamples(ctx, []bloodsugar.Sample{bloodsugar.NewSample(111, base)}))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	samples, err := reopened.QuerySamples(ctx, base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 111, samples[0].Value)
}

// Sample tests

func TestStoreAndQuerySamples(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	samples := []bloodsugar.Sample{
		bloodsugar.NewSample(130, base.Add(10*time.Minute)),
		bloodsugar.NewSample(110, base),
		bloodsugar.NewSample(120, base.Add(5*time.Minute)),
	}
	require.NoError(t, store.StoreSamples(ctx, samples))

	result, err := store.QuerySamples(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, result, 3)
	assert.Equal(t, []int{110, 120, 130}, bloodsugar.Series(result).Values())
	assert.True(t, result[0].Timestamp.Equal(base))
}

func TestQuerySamplesTimeRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreSamples(ctx, []bloodsugar.Sample{
		bloodsugar.NewSample(100, base.Add(-2*time.Hour)),
		bloodsugar.NewSample(110, base.Add(-30*time.Minute)),
		bloodsugar.NewSample(120, base),
	}))

	result, err := store.QuerySamples(ctx, base.Add(-time.Hour), base)
	require.NoError(t, err)

	assert.Equal(t, []int{110, 120}, bloodsugar.Series(result).Values())
}

func TestStoreSamplesReplacesSameTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreSamples(ctx, []bloodsugar.Sample{bloodsugar.NewSample(100, base)}))
	require.NoError(t, store.StoreSamples(ctx, []bloodsugar.Sample{bloodsugar.NewSample(105, base)}))

	result, err := store.QuerySamples(ctx, base, base)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 105, result[0].Value)
}

func TestStoreEmptyBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.StoreSamples(ctx, nil))
	assert.NoError(t, store.StoreBolusEvents(ctx, nil))
	assert.NoError(t, store.StoreCarbEvents(ctx, nil))
}

// Treatment tests

func TestStoreAndQueryTreatments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreBolusEvents(ctx, []treatment.BolusEvent{
		treatment.NewBolusEvent(2.5, base.Add(20*time.Minute)),
		treatment.NewBolusEvent(0.75, base),
	}))
	require.NoError(t, store.StoreCarbEvents(ctx, []treatment.CarbEvent{
		treatment.NewCarbEvent(40, base.Add(15*time.Minute)),
	}))

	boluses, err := store.QueryBolusEvents(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []treatment.BolusEvent{
		treatment.NewBolusEvent(0.75, base),
		treatment.NewBolusEvent(2.5, base.Add(20*time.Minute)),
	}, boluses)

	carbs, err := store.QueryCarbEvents(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []treatment.CarbEvent{
		treatment.NewCarbEvent(40, base.Add(15*time.Minute)),
	}, carbs)
}

func TestDeleteOldData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreSamples(ctx, []bloodsugar.Sample{
		bloodsugar.NewSample(100, base.Add(-3*time.Hour)),
		bloodsugar.NewSample(120, base),
	}))
	require.NoError(t, store.StoreBolusEvents(ctx, []treatment.BolusEvent{
		treatment.NewBolusEvent(1, base.Add(-3*time.Hour)),
	}))
	require.NoError(t, store.StoreCarbEvents(ctx, []treatment.CarbEvent{
		treatment.NewCarbEvent(20, base.Add(-3*time.Hour)),
		treatment.NewCarbEvent(30, base),
	}))

	require.NoError(t, store.DeleteOldData(ctx, base.Add(-time.Hour)))

	all := base.Add(-24 * time.Hour)
	samples, err := store.QuerySamples(ctx, all, base)
	require.NoError(t, err)
	assert.Len(t, samples, 1)

	boluses, err := store.QueryBolusEvents(ctx, all, base)
	require.NoError(t, err)
	assert.Empty(t, boluses)

	carbs, err := store.QueryCarbEvents(ctx, all, base)
	require.NoError(t, err)
	assert.Len(t, carbs, 1)
}

// Command log tests

func TestRecordAndListCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := storage.NewCommandRecord("cmd-1", "bolus", "1 U", nil)
	first.CreatedAt = base
	second := storage.NewCommandRecord("cmd-2", "carbs", "30 G", errors.New("rejected"))
	second.CreatedAt = base.Add(time.Minute)
	third := storage.NewCommandRecord("cmd-3", "override", "Running", nil)
	third.CreatedAt = base.Add(2 * time.Minute)

	for _, cmd := range []*storage.CommandRecord{first, second, third} {
		require.NoError(t, store.RecordCommand(ctx, cmd))
	}

	cmds, err := store.RecentCommands(ctx, 2)
	require.NoError(t, err)

	require.Len(t, cmds, 2)
	assert.Equal(t, "cmd-3", cmds[0].ID)
	assert.Equal(t, "cmd-2", cmds[1].ID)
	assert.Equal(t, "rejected", cmds[1].Error)
	assert.False(t, cmds[1].Succeeded())
	assert.True(t, cmds[0].CreatedAt.Equal(third.CreatedAt))
}

// Config tests

func TestConfigOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetConfig(ctx, "last_refresh")
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, store.SetConfig(ctx, "last_refresh", "2024-01-22T08:00:00Z"))

	value, err := store.GetConfig(ctx, "last_refresh")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-22T08:00:00Z", value)

	require.NoError(t, store.SetConfig(ctx, "last_refresh", "later"))
	value, err = store.GetConfig(ctx, "last_refresh")
	require.NoError(t, err)
	assert.Equal(t, "later", value)

	require.NoError(t, store.DeleteConfig(ctx, "last_refresh"))
	_, err = store.GetConfig(ctx, "last_refresh")
	assert.True(t, storage.IsNotFound(err))
}
