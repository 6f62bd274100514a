package cache

import (
	"context"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/redis"
)

// Tiered layers the in-memory store over a shared Redis cache so that
// separate processes (API server, scheduler, CLI) reuse each other's
// evaluations within the TTL window.
type Tiered struct {
	memory *Store
	remote *redis.Cache
	ttl    time.Duration
}

// NewTiered creates a two-tier cache. remote may be backed by a disabled
// Redis client, in which case only the memory tier is effective.
func NewTiered(memory *Store, remote *redis.Cache, ttl time.Duration) *Tiered {
	return &Tiered{memory: memory, remote: remote, ttl: ttl}
}

// Get checks the memory tier first, then Redis. A Redis hit is promoted
// into the memory tier.
func (t *Tiered) Get(ctx context.Context, key string) (*contracts.EvaluatorResult, bool) {
	if r, ok := t.memory.Get(key); ok {
		return r, true
	}

	var r contracts.EvaluatorResult
	found, err := t.remote.Get(ctx, key, &r)
	if err != nil || !found {
		return nil, false
	}

	t.memory.SetIfAbsent(key, &r)
	return &r, true
}

// SetIfAbsent writes to both tiers. The Redis write uses SetNX semantics via
// the memory tier's idempotence: only the first writer for a key reaches Redis.
func (t *Tiered) SetIfAbsent(ctx context.Context, key string, result *contracts.EvaluatorResult) bool {
	if !t.memory.SetIfAbsent(key, result) {
		return false
	}
	// Best effort: a Redis failure must not fail the evaluation.
	_ = t.remote.SetNX(ctx, key, result, t.ttl)
	return true
}
