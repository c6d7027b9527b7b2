package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"yieldwatch/pkg/retry"
	"yieldwatch/pkg/transport"
)

// StrataConfig holds strata job configuration.
type StrataConfig struct {
	// WalletAddress parameterizes the stats query.
	WalletAddress string

	// StatsURL overrides the points stats endpoint (tests). The wallet
	// address is appended as a query parameter.
	StatsURL string

	// EgressURL overrides the connectivity check endpoint (tests).
	EgressURL string

	// Retry applies to the egress pre-check independently of the outer
	// job policy.
	Retry retry.Config
}

const defaultStrataStatsURL = "https://api.strata.money/points/stats"

// Strata builds the points-stats job: verify egress through the proxy, pull
// the season stats payload and write global plus account points. Both
// values must be present; a partial payload is a job error, not a zero.
func Strata(opener transport.Opener, cfg StrataConfig) Job {
	if cfg.StatsURL == "" {
		cfg.StatsURL = defaultStrataStatsURL
	}
	if cfg.EgressURL == "" {
		cfg.EgressURL = transport.DefaultEgressURL
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}

	return Job{
		Name:       "strata",
		DateLayout: "02/01/2006",
		Collect: func(ctx context.Context) ([]any, error) {
			sess, err := opener.Open(ctx)
			if err != nil {
				return nil, fmt.Errorf("open session: %w", err)
			}
			defer sess.Close()

			err = retry.Do(ctx, "strata-egress", cfg.Retry, func(ctx context.Context) error {
				_, err := transport.VerifyEgress(ctx, sess, cfg.EgressURL)
				return err
			})
			if err != nil {
				return nil, err
			}

			url := fmt.Sprintf("%s?accountAddress=%s&season=1&chainId=1", cfg.StatsURL, cfg.WalletAddress)

			var payload struct {
				Data struct {
					Info struct {
						Points json.RawMessage `json:"points"`
					} `json:"info"`
					Account struct {
						Points struct {
							Total json.RawMessage `json:"total"`
						} `json:"points"`
					} `json:"account"`
				} `json:"data"`
			}
			if err := fetchJSON(ctx, sess, url, &payload); err != nil {
				return nil, err
			}

			global, err := coerceNumber(payload.Data.Info.Points)
			if err != nil {
				return nil, fmt.Errorf("global points: %w", err)
			}
			account, err := coerceNumber(payload.Data.Account.Points.Total)
			if err != nil {
				return nil, fmt.Errorf("account points: %w", err)
			}

			return []any{global, account}, nil
		},
	}
}
