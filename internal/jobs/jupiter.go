package jobs

import (
	"context"
	"fmt"
	"regexp"

	"yieldwatch/pkg/extract"
	"yieldwatch/pkg/transport"
)

// JupiterConfig holds jupiter job configuration.
type JupiterConfig struct {
	// PageURL is the rendered stats page (tests point it at a fixture).
	PageURL string
}

const defaultJupiterURL = "https://jup.ag/perps-earn"

// usdtCellPattern marks the token-denominated USDT cell; the dollar value
// for that cell renders on the line above it.
var usdtCellPattern = regexp.MustCompile(`^[\d,]+\.\d{2}\s+USDT$`)

// Jupiter builds the pool-composition job: flatten the rendered page to text
// lines, extract TVL, per-asset values, supply, price and APR, and derive
// each asset's share of TVL. Missing fields write as 0 rather than failing
// the row; the page layout shifts often enough that partial rows are more
// useful than none.
func Jupiter(opener transport.Opener, cfg JupiterConfig) Job {
	if cfg.PageURL == "" {
		cfg.PageURL = defaultJupiterURL
	}

	return Job{
		Name:       "jupiter",
		DateLayout: "02/01/2006",
		Collect: func(ctx context.Context) ([]any, error) {
			sess, err := opener.Open(ctx)
			if err != nil {
				return nil, fmt.Errorf("open session: %w", err)
			}
			defer sess.Close()

			page, err := sess.Fetch(ctx, cfg.PageURL)
			if err != nil {
				return nil, err
			}
			if !page.OK() {
				return nil, fmt.Errorf("fetch %s: status %d", cfg.PageURL, page.Status)
			}

			lines := extract.Lines(string(page.Body))

			tvl, _ := extract.After(lines, "Total Value Locked", "$")
			wsol, _ := extract.After(lines, "Wrapped SOL", "$")
			eth, _ := extract.After(lines, "Ether (Portal)", "$")
			wbtc, _ := extract.After(lines, "Wrapped BTC (Portal)", "$")
			usdc, _ := extract.After(lines, "USD Coin", "$")
			usdt, _ := extract.AmountAbove(lines, usdtCellPattern)
			supply, _ := extract.After(lines, "Total Supply", "")
			price, _ := extract.After(lines, "JLP Price", "$")
			apr, _ := extract.After(lines, "APR", "")

			share := func(v float64) float64 {
				if tvl == 0 {
					return 0
				}
				return v / tvl
			}

			var aprCell any = ""
			if apr != 0 {
				aprCell = fmt.Sprintf("%v%%", apr)
			}

			return []any{
				tvl,
				wsol, share(wsol),
				eth, share(eth),
				wbtc, share(wbtc),
				usdc, share(usdc),
				usdt, share(usdt),
				supply,
				price,
				aprCell,
			}, nil
		},
	}
}
