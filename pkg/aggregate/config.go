package aggregate

import "time"

// Config holds fetcher configuration.
type Config struct {
	// BatchSize is the number of pages processed before the session pool is
	// torn down and reallocated.
	BatchSize int

	// MaxConcurrent is the number of pages in flight at any instant, and the
	// size of the per-batch session pool.
	MaxConcurrent int

	// PageTimeout bounds a single page fetch.
	PageTimeout time.Duration

	// DiscoveryTimeout bounds the initial page-count request.
	DiscoveryTimeout time.Duration

	// RetryDelay is the pause before the single per-page retry attempt.
	RetryDelay time.Duration

	// MaxFailureRate is the tolerated fraction of failed pages. A run above
	// this fraction fails as a whole rather than publishing an undercount.
	MaxFailureRate float64

	// EntriesField names the record container in the page envelope.
	EntriesField string

	// SumField names the numeric field summed across records.
	SumField string
}

// DefaultConfig returns the production configuration for the leaderboard
// endpoint.
func DefaultConfig() Config {
	return Config{
		BatchSize:        18,
		MaxConcurrent:    6,
		PageTimeout:      20 * time.Second,
		DiscoveryTimeout: 30 * time.Second,
		RetryDelay:       1 * time.Second,
		MaxFailureRate:   0.10,
		EntriesField:     "entries",
		SumField:         "caps",
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = d.PageTimeout
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = d.DiscoveryTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.MaxFailureRate <= 0 {
		c.MaxFailureRate = d.MaxFailureRate
	}
	if c.EntriesField == "" {
		c.EntriesField = d.EntriesField
	}
	if c.SumField == "" {
		c.SumField = d.SumField
	}
}
