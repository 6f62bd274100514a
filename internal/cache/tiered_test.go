package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/config"
	"github.com/jaehyun-dev/concord/pkg/redis"
)

func disabledRemote(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestTiered_MemoryTierServesWithoutRedis(t *testing.T) {
	ctx := context.Background()
	tiered := NewTiered(NewStore(time.Hour), disabledRemote(t), time.Hour)

	key := Key("AAPL", "fp1")
	result := &contracts.EvaluatorResult{Symbol: "AAPL", Composite: 77}

	_, ok := tiered.Get(ctx, key)
	assert.False(t, ok, "empty cache should miss")

	require.True(t, tiered.SetIfAbsent(ctx, key, result))

	got, ok := tiered.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 77.0, got.Composite)
}

func TestTiered_SetIfAbsentIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	tiered := NewTiered(NewStore(time.Hour), disabledRemote(t), time.Hour)

	key := Key("MSFT", "fp1")
	first := &contracts.EvaluatorResult{Symbol: "MSFT", Composite: 60}
	second := &contracts.EvaluatorResult{Symbol: "MSFT", Composite: 99}

	require.True(t, tiered.SetIfAbsent(ctx, key, first))
	assert.False(t, tiered.SetIfAbsent(ctx, key, second), "second writer must lose")

	got, ok := tiered.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 60.0, got.Composite, "first write must win")
}

func TestTiered_DistinctFingerprintsAreDistinctKeys(t *testing.T) {
	ctx := context.Background()
	tiered := NewTiered(NewStore(time.Hour), disabledRemote(t), time.Hour)

	require.True(t, tiered.SetIfAbsent(ctx, Key("AAPL", "fp1"), &contracts.EvaluatorResult{Composite: 50}))
	require.True(t, tiered.SetIfAbsent(ctx, Key("AAPL", "fp2"), &contracts.EvaluatorResult{Composite: 70}))

	a, ok := tiered.Get(ctx, Key("AAPL", "fp1"))
	require.True(t, ok)
	b, ok := tiered.Get(ctx, Key("AAPL", "fp2"))
	require.True(t, ok)
	assert.NotEqual(t, a.Composite, b.Composite)
}
