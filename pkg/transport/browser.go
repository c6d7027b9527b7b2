package transport

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"yieldwatch/pkg/logging"
)

// BrowserConfig holds configuration for the headless-browser transport.
type BrowserConfig struct {
	// ProxyURL tunnels browser traffic through the given proxy.
	ProxyURL string

	// UserAgent overrides the browser user agent string.
	UserAgent string

	// Timeout is the per-navigation timeout.
	Timeout time.Duration
}

// DefaultBrowserConfig returns safe defaults for the browser transport.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Timeout:   60 * time.Second,
	}
}

// BrowserOpener creates sessions backed by tabs of a shared headless Chrome
// instance. The browser is launched lazily on first Open and torn down by
// Shutdown.
type BrowserOpener struct {
	config BrowserConfig
	logger zerolog.Logger

	once       sync.Once
	launchErr  error
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewBrowserOpener creates a new browser opener.
func NewBrowserOpener(cfg BrowserConfig) *BrowserOpener {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &BrowserOpener{
		config: cfg,
		logger: logging.NewLogger("transport-browser"),
	}
}

func (o *BrowserOpener) launch(ctx context.Context) {
	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(o.config.UserAgent),
	)
	if o.config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(o.config.ProxyURL))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser process up front so Open failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		o.launchErr = &Error{Op: "launch", Err: err}
		return
	}

	o.browserCtx = browserCtx
	o.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}
	o.logger.Info().
		Bool("proxied", o.config.ProxyURL != "").
		Msg("Headless browser started")
}

// Open creates a new tab as an isolated session.
func (o *BrowserOpener) Open(ctx context.Context) (Session, error) {
	o.once.Do(func() { o.launch(ctx) })
	if o.launchErr != nil {
		return nil, o.launchErr
	}

	tabCtx, cancel := chromedp.NewContext(o.browserCtx)
	return &browserSession{
		tab:     tabCtx,
		cancel:  cancel,
		timeout: o.config.Timeout,
		logger:  o.logger,
	}, nil
}

// Shutdown tears down the browser process. Sessions opened from this opener
// must be closed first.
func (o *BrowserOpener) Shutdown() {
	for _, cancel := range o.cancels {
		cancel()
	}
	o.cancels = nil
}

type browserSession struct {
	tab     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  zerolog.Logger
}

// Fetch navigates the tab to url and returns the rendered payload. JSON
// endpoints render inside a <pre> element; its text is returned when
// present, otherwise the full document text is used.
func (s *browserSession) Fetch(ctx context.Context, url string) (*Page, error) {
	runCtx, cancel := context.WithTimeout(s.tab, s.timeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dlCancel context.CancelFunc
		runCtx, dlCancel = context.WithDeadline(runCtx, deadline)
		defer dlCancel()
	}

	var resp *network.Response
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, &Error{Op: "navigate", URL: url, Err: err}
	}

	status := 200
	if resp != nil {
		status = int(resp.Status)
	}

	var pre, body string
	err = chromedp.Run(runCtx,
		chromedp.Text("pre", &pre, chromedp.ByQuery, chromedp.AtLeast(0)),
		chromedp.Text("body", &body, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, &Error{Op: "extract", URL: url, Err: err}
	}

	payload := strings.TrimSpace(pre)
	if payload == "" {
		payload = body
	}

	s.logger.Debug().
		Str("url", url).
		Int("status", status).
		Int("bytes", len(payload)).
		Msg("Rendered page")

	return &Page{Status: status, Body: []byte(payload)}, nil
}

func (s *browserSession) Close() error {
	s.cancel()
	return nil
}
