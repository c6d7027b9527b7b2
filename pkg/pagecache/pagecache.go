// Package pagecache stores per-page sums in Redis so that an outer retry
// attempt of an aggregation run refetches only the pages that failed in the
// previous attempt.
package pagecache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Prometheus metrics for page cache operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yieldwatch_pagecache_hits_total",
		Help: "Total page cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yieldwatch_pagecache_misses_total",
		Help: "Total page cache misses",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldwatch_pagecache_errors_total",
		Help: "Total page cache operation errors",
	}, []string{"operation"})
)

// DefaultTTL keeps entries alive long enough for outer retries of the same
// run but never across a day boundary.
const DefaultTTL = 6 * time.Hour

// Store is a Redis-backed page cache scoped to one logical run date.
type Store struct {
	redis   *redis.Client
	dateKey string
	ttl     time.Duration
}

// New creates a store scoped to dateKey. The date key is part of every
// Redis key, so a rerun on a later date never sees stale sums.
func New(redisClient *redis.Client, dateKey string) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{
		redis:   redisClient,
		dateKey: dateKey,
		ttl:     DefaultTTL,
	}
}

// WithTTL overrides the entry TTL.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

// Get retrieves the cached sum for a page. The boolean reports whether the
// page was present.
func (s *Store) Get(ctx context.Context, endpoint string, page int) (float64, bool, error) {
	sum, err := s.redis.Get(ctx, s.key(endpoint, page)).Float64()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return 0, false, nil
		}
		cacheErrors.WithLabelValues("get").Inc()
		return 0, false, fmt.Errorf("redis get: %w", err)
	}

	cacheHits.Inc()
	return sum, true, nil
}

// Set stores the sum for a page with the store TTL.
func (s *Store) Set(ctx context.Context, endpoint string, page int, sum float64) error {
	if err := s.redis.Set(ctx, s.key(endpoint, page), sum, s.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// key generates a deterministic Redis key.
// Format: yieldwatch:pages:<date>:<host/path>:<page>
func (s *Store) key(endpoint string, page int) string {
	target := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		target = u.Host + strings.TrimRight(u.Path, "/")
	}
	return fmt.Sprintf("yieldwatch:pages:%s:%s:%d", s.dateKey, target, page)
}
