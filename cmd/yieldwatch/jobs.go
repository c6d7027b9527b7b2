package main

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"yieldwatch/internal/jobs"
	"yieldwatch/pkg/aggregate"
	"yieldwatch/pkg/notify"
	"yieldwatch/pkg/pagecache"
	"yieldwatch/pkg/sheets"
	"yieldwatch/pkg/transport"
)

// newOpener builds the transport from config. The returned shutdown func
// must run after the job finishes; it tears down the shared browser when
// one was launched.
func newOpener() (transport.Opener, func()) {
	if cfg.UseBrowser {
		opener := transport.NewBrowserOpener(transport.BrowserConfig{
			ProxyURL: cfg.ProxyURL,
		})
		return opener, opener.Shutdown
	}

	opener := transport.NewHTTPOpener(transport.HTTPConfig{
		ProxyURL: cfg.ProxyURL,
		Timeout:  cfg.PageTimeout,
	})
	return opener, func() {}
}

func newSink(worksheet string) (*sheets.Client, error) {
	if err := cfg.RequireSheets(); err != nil {
		return nil, err
	}
	return sheets.NewClient(sheets.Config{
		SpreadsheetID: cfg.SpreadsheetID,
		Worksheet:     worksheet,
		Token:         cfg.SheetsToken,
	})
}

// newPageCache wires the redis page cache when REDIS_URL is set. Without it
// every outer retry attempt refetches all pages.
func newPageCache() (aggregate.PageCache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	return pagecache.New(client, time.Now().Format("2006-01-02")), nil
}

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Sum the caps leaderboard across all pages and record the total",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := newSink("Cap")
		if err != nil {
			return err
		}
		cache, err := newPageCache()
		if err != nil {
			return err
		}
		opener, shutdown := newOpener()
		defer shutdown()

		return jobs.NewRunner(sink).Run(cmd.Context(),
			jobs.Caps(opener, cache, jobs.CapsConfig{}))
	},
}

var strataCmd = &cobra.Command{
	Use:   "strata",
	Short: "Record global and account points from the points stats API",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := newSink("Strata")
		if err != nil {
			return err
		}
		opener, shutdown := newOpener()
		defer shutdown()

		return jobs.NewRunner(sink).Run(cmd.Context(),
			jobs.Strata(opener, jobs.StrataConfig{WalletAddress: cfg.WalletAddress}))
	},
}

var neutrlCmd = &cobra.Command{
	Use:   "neutrl",
	Short: "Record season program points and participant count",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := newSink("Neutrl")
		if err != nil {
			return err
		}
		opener, shutdown := newOpener()
		defer shutdown()

		return jobs.NewRunner(sink).Run(cmd.Context(),
			jobs.Neutrl(opener, jobs.NeutrlConfig{}))
	},
}

var jupiterCmd = &cobra.Command{
	Use:   "jupiter",
	Short: "Record pool TVL, composition, supply, price and APR",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := newSink("Jupiter")
		if err != nil {
			return err
		}
		opener, shutdown := newOpener()
		defer shutdown()

		return jobs.NewRunner(sink).Run(cmd.Context(),
			jobs.Jupiter(opener, jobs.JupiterConfig{}))
	},
}

var apyReportCmd = &cobra.Command{
	Use:   "apyreport",
	Short: "Send the competitor APY digest to the chat channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}
		notifier, err := notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramChatID,
		})
		if err != nil {
			return err
		}
		opener, shutdown := newOpener()
		defer shutdown()

		return jobs.NewAPYReport(opener, notifier, jobs.APYReportConfig{}).Run(cmd.Context())
	},
}
