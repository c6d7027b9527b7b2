package jobs

import (
	"context"

	"yieldwatch/pkg/aggregate"
	"yieldwatch/pkg/transport"
)

// DefaultCapsEndpoint is the paginated leaderboard the caps job sums.
const DefaultCapsEndpoint = "https://api.cap.app/v1/caps/leaderboard"

// CapsConfig holds caps job configuration.
type CapsConfig struct {
	// Endpoint is the leaderboard URL (tests point it at a mock).
	Endpoint string

	// Aggregate tunes the fetcher; zero values take the defaults.
	Aggregate aggregate.Config
}

// Caps builds the paginated-aggregation job: discover the page count, fetch
// every page under the batch scheduler and write the grand total of the
// caps field into the date row.
func Caps(opener transport.Opener, cache aggregate.PageCache, cfg CapsConfig) Job {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCapsEndpoint
	}

	return Job{
		Name:       "caps",
		DateLayout: "2006-01-02",
		Collect: func(ctx context.Context) ([]any, error) {
			fetcher := aggregate.New(opener, cfg.Aggregate)
			if cache != nil {
				fetcher = fetcher.WithCache(cache)
			}

			state, err := fetcher.Run(ctx, cfg.Endpoint)
			if err != nil {
				return nil, err
			}
			return []any{state.GrandTotal}, nil
		},
	}
}
