package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"yieldwatch/pkg/extract"
	"yieldwatch/pkg/logging"
	"yieldwatch/pkg/notify"
	"yieldwatch/pkg/retry"
	"yieldwatch/pkg/transport"
)

// APYReportConfig lists the competitor APY sources. Every URL has a
// production default; tests point them at fixtures.
type APYReportConfig struct {
	ReservoirURL    string
	AvantSavUSDURL  string
	AvantAvUSDxURL  string
	MidasURL        string
	YieldFiYUSDURL  string
	YieldFiVyUSDURL string
	InfinifiDataURL string
	InfinifiLockURL string

	// Retry applies to the final digest delivery.
	Retry retry.Config
}

func (c *APYReportConfig) applyDefaults() {
	def := func(field *string, url string) {
		if *field == "" {
			*field = url
		}
	}
	def(&c.ReservoirURL, "https://app.reservoir.xyz/mint?from=rUSD&fromNetwork=Ethereum&to=srUSDv2&toNetwork=Ethereum")
	def(&c.AvantSavUSDURL, "https://app.avantprotocol.com/api/apy/savusd")
	def(&c.AvantAvUSDxURL, "https://app.avantprotocol.com/api/apy/avusdx")
	def(&c.MidasURL, "https://api-prod.midas.app/api/data/apys")
	def(&c.YieldFiYUSDURL, "https://ctrl.yield.fi/t/apy/yusd/apyHistory")
	def(&c.YieldFiVyUSDURL, "https://ctrl.yield.fi/t/apy/vyusd/apyHistory")
	def(&c.InfinifiDataURL, "https://eth-api.infinifi.xyz/api/protocol/data")
	def(&c.InfinifiLockURL, "https://app.infinifi.xyz/lock")
	if c.Retry.Attempts == 0 {
		c.Retry = retry.DefaultConfig()
	}
}

// APYReport collects competitor APY values from every configured source and
// delivers the digest to the chat channel. Individual source failures render
// as placeholders; only digest delivery failure fails the job.
type APYReport struct {
	opener   transport.Opener
	notifier notify.Notifier
	config   APYReportConfig
	logger   zerolog.Logger
}

// NewAPYReport creates the report job.
func NewAPYReport(opener transport.Opener, notifier notify.Notifier, cfg APYReportConfig) *APYReport {
	cfg.applyDefaults()
	return &APYReport{
		opener:   opener,
		notifier: notifier,
		config:   cfg,
		logger:   logging.NewLogger("apyreport"),
	}
}

// Run gathers all sources and sends the digest.
func (r *APYReport) Run(ctx context.Context) error {
	sess, err := r.opener.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	reservoir := r.pagePercent(ctx, sess, r.config.ReservoirURL, "Current APY")
	savUSD := r.apyField(ctx, sess, r.config.AvantSavUSDURL)
	avUSDx := r.apyField(ctx, sess, r.config.AvantAvUSDxURL)
	mhyper := r.midasAPY(ctx, sess)
	yUSD := r.apyHistory(ctx, sess, r.config.YieldFiYUSDURL)
	vyUSD := r.apyHistory(ctx, sess, r.config.YieldFiVyUSDURL)
	siUSD := r.infinifiStaked(ctx, sess)
	liUSD1 := r.pagePercent(ctx, sess, r.config.InfinifiLockURL, "1 week")
	liUSD4 := r.pagePercent(ctx, sess, r.config.InfinifiLockURL, "4 week")
	liUSD8 := r.pagePercent(ctx, sess, r.config.InfinifiLockURL, "8 week")

	html := notify.NewDigest("Competitor Report 📊").
		Section("Reservoir").
		Line("wsrUSD APY", reservoir).
		Section("Avant").
		Line("savUSD APY (Daily)", savUSD).
		Line("avUSDx APY (Weekly)", avUSDx).
		Section("mHyper").
		Line("mHyper APY (7 Day)", mhyper).
		Section("YieldFi").
		Line("yUSD APY (7 Day)", yUSD).
		Line("vyUSD APY (7 Day)", vyUSD).
		Section("Infinifi").
		Line("siUSD APY", siUSD).
		Line("liUSD 1 Week APY", liUSD1).
		Line("liUSD 4 Week APY", liUSD4).
		Line("liUSD 8 Week APY", liUSD8).
		HTML()

	return retry.Do(ctx, "apyreport-send", r.config.Retry, func(ctx context.Context) error {
		return r.notifier.Send(ctx, html)
	})
}

// pagePercent renders a page and pulls "label ... N%" from its text.
func (r *APYReport) pagePercent(ctx context.Context, sess transport.Session, url, label string) *float64 {
	page, err := sess.Fetch(ctx, url)
	if err != nil {
		r.sourceFailed(url, err)
		return nil
	}
	if !page.OK() {
		r.sourceFailed(url, fmt.Errorf("status %d", page.Status))
		return nil
	}
	v, ok := extract.Percent(string(page.Body), label)
	if !ok {
		r.sourceFailed(url, fmt.Errorf("label %q not found", label))
		return nil
	}
	return &v
}

// apyField reads a plain {"apy": N} payload.
func (r *APYReport) apyField(ctx context.Context, sess transport.Session, url string) *float64 {
	var payload struct {
		APY json.RawMessage `json:"apy"`
	}
	if err := fetchJSON(ctx, sess, url, &payload); err != nil {
		r.sourceFailed(url, err)
		return nil
	}
	v, err := coerceNumber(payload.APY)
	if err != nil {
		r.sourceFailed(url, err)
		return nil
	}
	return &v
}

// apyHistory reads the newest entry of an {"apy_history": [...]} payload.
func (r *APYReport) apyHistory(ctx context.Context, sess transport.Session, url string) *float64 {
	var payload struct {
		History []struct {
			APY json.RawMessage `json:"apy"`
		} `json:"apy_history"`
	}
	if err := fetchJSON(ctx, sess, url, &payload); err != nil {
		r.sourceFailed(url, err)
		return nil
	}
	if len(payload.History) == 0 {
		r.sourceFailed(url, fmt.Errorf("apy history is empty"))
		return nil
	}
	v, err := coerceNumber(payload.History[0].APY)
	if err != nil {
		r.sourceFailed(url, err)
		return nil
	}
	return &v
}

// midasAPY reads the mhyper rate, served as a fraction.
func (r *APYReport) midasAPY(ctx context.Context, sess transport.Session) *float64 {
	var payload struct {
		MHyper json.RawMessage `json:"mhyper"`
	}
	if err := fetchJSON(ctx, sess, r.config.MidasURL, &payload); err != nil {
		r.sourceFailed(r.config.MidasURL, err)
		return nil
	}
	v, err := coerceNumber(payload.MHyper)
	if err != nil {
		r.sourceFailed(r.config.MidasURL, err)
		return nil
	}
	v *= 100
	return &v
}

// infinifiStaked reads the siUSD 7-day average, served as a fraction.
func (r *APYReport) infinifiStaked(ctx context.Context, sess transport.Session) *float64 {
	var payload struct {
		Data struct {
			Staked struct {
				SiUSD struct {
					Average7dAPY json.RawMessage `json:"average7dAPY"`
				} `json:"siUSD"`
			} `json:"staked"`
		} `json:"data"`
	}
	if err := fetchJSON(ctx, sess, r.config.InfinifiDataURL, &payload); err != nil {
		r.sourceFailed(r.config.InfinifiDataURL, err)
		return nil
	}
	v, err := coerceNumber(payload.Data.Staked.SiUSD.Average7dAPY)
	if err != nil {
		r.sourceFailed(r.config.InfinifiDataURL, err)
		return nil
	}
	v *= 100
	return &v
}

func (r *APYReport) sourceFailed(url string, err error) {
	r.logger.Warn().Str("url", url).Err(err).Msg("APY source failed")
}
