package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/forecaster"
	"github.com/optiflow/backend/internal/timeseries"
)

func trainedModel(t *testing.T) *forecaster.SeasonalTrend {
	t.Helper()
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	obs := make([]timeseries.Observation, 14)
	for i := range obs {
		obs[i] = timeseries.Observation{Date: start.AddDate(0, 0, i), Value: 6}
	}
	series, err := timeseries.Prepare(obs)
	require.NoError(t, err)

	m := forecaster.NewSeasonalTrend(forecaster.Config{})
	require.NoError(t, m.Fit(series))
	return m
}

func TestFSStoreRoundTrip(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 42, trainedModel(t)))

	loaded, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, loaded.Fitted)

	preds, err := loaded.Predict(7)
	require.NoError(t, err)
	assert.Len(t, preds, 7)
}

func TestFSStoreMissingArtifact(t *testing.T) {
	store := NewFSStore(t.TempDir())
	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestFSStorePutOverwrites(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	first := trainedModel(t)
	require.NoError(t, store.Put(ctx, 7, first))

	second := trainedModel(t)
	second.Level = 123
	require.NoError(t, store.Put(ctx, 7, second))

	loaded, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 123.0, loaded.Level)

	ids, err := store.ProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
}

func TestFSStoreProductIDsEmptyDir(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ids, err := store.ProductIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)

	require.NoError(t, store.Put(ctx, 1, trainedModel(t)))
	require.NoError(t, store.Put(ctx, 3, trainedModel(t)))

	ids, err := store.ProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}
