// Package sheets is the persistence sink for the collection jobs: a
// spreadsheet worksheet where column A holds date keys and each job writes
// its metrics into the remaining columns of the matching row.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"yieldwatch/pkg/logging"
)

// Prometheus metrics for sink operations.
var (
	sheetWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yieldwatch_sheet_writes_total",
		Help: "Total cell range writes to the spreadsheet",
	})

	sheetErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldwatch_sheet_errors_total",
		Help: "Total spreadsheet API errors by operation",
	}, []string{"operation"})
)

// RowSink is the persistence capability consumed by the jobs. Rows are
// keyed by the run's logical date in column A.
type RowSink interface {
	// FindRow returns the 1-based row holding dateKey, and whether its
	// value column is already populated. row is 0 when the key is absent.
	FindRow(ctx context.Context, dateKey string) (row int, filled bool, err error)

	// AppendRow adds a new row with dateKey in column A and returns its
	// 1-based index.
	AppendRow(ctx context.Context, dateKey string) (int, error)

	// WriteCells writes values into consecutive columns of row, starting at
	// startCol (1-based, A=1).
	WriteCells(ctx context.Context, row int, startCol int, values []any) error
}

// Config holds spreadsheet client configuration.
type Config struct {
	// SpreadsheetID identifies the target spreadsheet.
	SpreadsheetID string

	// Worksheet is the tab name within the spreadsheet.
	Worksheet string

	// Token is a bearer token for the values API. Token provisioning
	// (service accounts, refresh) happens outside this package.
	Token string

	// BaseURL overrides the API host (tests).
	BaseURL string

	// Timeout bounds each API call.
	Timeout time.Duration
}

const defaultBaseURL = "https://sheets.googleapis.com"

// Client talks to the spreadsheet values API.
type Client struct {
	http   *resty.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a spreadsheet client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.Worksheet == "" {
		return nil, fmt.Errorf("worksheet name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Client{
		http:   client,
		config: cfg,
		logger: logging.NewLogger("sheets"),
	}, nil
}

// HTTPClient exposes the underlying client (for testing).
func (c *Client) HTTPClient() *resty.Client {
	return c.http
}

type valueRange struct {
	Range  string  `json:"range,omitempty"`
	Values [][]any `json:"values"`
}

// FindRow scans columns A:B of the worksheet for dateKey.
func (c *Client) FindRow(ctx context.Context, dateKey string) (int, bool, error) {
	var result valueRange
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.valuesPath(fmt.Sprintf("%s!A:B", c.config.Worksheet)))
	if err != nil {
		sheetErrorsTotal.WithLabelValues("find").Inc()
		return 0, false, fmt.Errorf("read key column: %w", err)
	}
	if resp.IsError() {
		sheetErrorsTotal.WithLabelValues("find").Inc()
		return 0, false, fmt.Errorf("read key column: status %d: %s", resp.StatusCode(), resp.String())
	}

	for i, row := range result.Values {
		if len(row) == 0 || fmt.Sprint(row[0]) != dateKey {
			continue
		}
		filled := len(row) > 1 && fmt.Sprint(row[1]) != ""
		return i + 1, filled, nil
	}

	return 0, false, nil
}

// AppendRow writes dateKey into column A of the first free row.
func (c *Client) AppendRow(ctx context.Context, dateKey string) (int, error) {
	var result valueRange
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.valuesPath(fmt.Sprintf("%s!A:A", c.config.Worksheet)))
	if err != nil {
		sheetErrorsTotal.WithLabelValues("append").Inc()
		return 0, fmt.Errorf("read key column: %w", err)
	}
	if resp.IsError() {
		sheetErrorsTotal.WithLabelValues("append").Inc()
		return 0, fmt.Errorf("read key column: status %d: %s", resp.StatusCode(), resp.String())
	}

	row := len(result.Values) + 1
	if err := c.writeRange(ctx, fmt.Sprintf("%s!A%d:A%d", c.config.Worksheet, row, row), [][]any{{dateKey}}); err != nil {
		sheetErrorsTotal.WithLabelValues("append").Inc()
		return 0, err
	}

	c.logger.Info().
		Str("date_key", dateKey).
		Int("row", row).
		Msg("Created row for run date")

	return row, nil
}

// WriteCells writes values into consecutive columns of row starting at
// startCol.
func (c *Client) WriteCells(ctx context.Context, row int, startCol int, values []any) error {
	if len(values) == 0 {
		return nil
	}

	rangeName := fmt.Sprintf("%s!%s%d:%s%d",
		c.config.Worksheet,
		columnName(startCol), row,
		columnName(startCol+len(values)-1), row)

	if err := c.writeRange(ctx, rangeName, [][]any{values}); err != nil {
		sheetErrorsTotal.WithLabelValues("write").Inc()
		return err
	}

	sheetWritesTotal.Inc()
	c.logger.Info().
		Str("range", rangeName).
		Int("cells", len(values)).
		Msg("Wrote cells")

	return nil
}

func (c *Client) writeRange(ctx context.Context, rangeName string, values [][]any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetBody(valueRange{Range: rangeName, Values: values}).
		Put(c.valuesPath(rangeName))
	if err != nil {
		return fmt.Errorf("write %s: %w", rangeName, err)
	}
	if resp.IsError() {
		return fmt.Errorf("write %s: status %d: %s", rangeName, resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *Client) valuesPath(rangeName string) string {
	return fmt.Sprintf("/v4/spreadsheets/%s/values/%s", c.config.SpreadsheetID, rangeName)
}

// columnName converts a 1-based column index to its letter name (A, B, ...,
// Z, AA, ...).
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
