// Package cache provides the per-run evaluation result cache: read-many,
// write-once per key, with TTL expiry.
package cache

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

const shardCount = 16

// Key builds the cache key for one evaluation: symbol plus the content
// fingerprint of its input series.
func Key(symbol, fingerprint string) string {
	return fmt.Sprintf("eval:%s:%s", symbol, fingerprint)
}

type entry struct {
	result    *contracts.EvaluatorResult
	expiresAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// Store is a sharded in-memory cache for evaluator results. SetIfAbsent is
// idempotent, so two workers racing on the same key can never overwrite each
// other's result.
type Store struct {
	shards [shardCount]*shard
	ttl    time.Duration

	mu   sync.Mutex
	hits int64
	miss int64
}

// NewStore creates a cache with the given TTL.
func NewStore(ttl time.Duration) *Store {
	s := &Store{ttl: ttl}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Get returns the cached result for key, if present and not expired.
func (s *Store) Get(key string) (*contracts.EvaluatorResult, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		if ok {
			// Expired entry: drop it lazily.
			sh.mu.Lock()
			if cur, still := sh.entries[key]; still && time.Now().After(cur.expiresAt) {
				delete(sh.entries, key)
			}
			sh.mu.Unlock()
		}
		s.count(false)
		return nil, false
	}

	s.count(true)
	return e.result, true
}

// SetIfAbsent stores the result only if no live entry exists for key.
// Returns true if the value was stored.
func (s *Store) SetIfAbsent(key string, result *contracts.EvaluatorResult) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.entries[key]; ok && time.Now().Before(e.expiresAt) {
		return false
	}
	sh.entries[key] = entry{result: result, expiresAt: time.Now().Add(s.ttl)}
	return true
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	n := 0
	now := time.Now()
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			if now.Before(e.expiresAt) {
				n++
			}
		}
		sh.mu.RUnlock()
	}
	return n
}

// Stats returns hit and miss counts since creation.
func (s *Store) Stats() (hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.miss
}

func (s *Store) count(hit bool) {
	s.mu.Lock()
	if hit {
		s.hits++
	} else {
		s.miss++
	}
	s.mu.Unlock()
}
