// Package jobs implements the individual metric-collection jobs and the
// harness they share: resolve the date key, check the sink for an already
// filled row, collect under the outer retry policy, write the row.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yieldwatch/pkg/logging"
	"yieldwatch/pkg/retry"
	"yieldwatch/pkg/sheets"
)

// Job describes one spreadsheet-writing collection job.
type Job struct {
	// Name identifies the job in logs.
	Name string

	// DateLayout formats the logical date into the row key. The layouts
	// differ per worksheet and must match what is already in column A.
	DateLayout string

	// StartColumn is the first value column (defaults to B).
	StartColumn int

	// Collect gathers the row values. It runs under the outer retry
	// policy and must be safe to invoke again after a failure.
	Collect func(ctx context.Context) ([]any, error)
}

// Runner drives a Job against a row sink.
type Runner struct {
	sink   sheets.RowSink
	retry  retry.Config
	now    func() time.Time
	logger zerolog.Logger
}

// NewRunner creates a runner writing to the given sink.
func NewRunner(sink sheets.RowSink) *Runner {
	return &Runner{
		sink:   sink,
		retry:  retry.DefaultConfig(),
		now:    time.Now,
		logger: logging.NewLogger("jobs"),
	}
}

// WithRetry overrides the outer retry policy.
func (r *Runner) WithRetry(cfg retry.Config) *Runner {
	r.retry = cfg
	return r
}

// WithClock overrides the time source (for testing).
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes one job for the current date. A row already holding a value
// for today's key is left untouched and no collection happens; the run is
// reported as a successful no-op.
func (r *Runner) Run(ctx context.Context, job Job) error {
	if job.StartColumn == 0 {
		job.StartColumn = 2
	}
	dateKey := r.now().Format(job.DateLayout)
	logger := r.logger.With().Str("job", job.Name).Str("date_key", dateKey).Logger()

	row, filled, err := r.sink.FindRow(ctx, dateKey)
	if err != nil {
		return fmt.Errorf("find row for %q: %w", dateKey, err)
	}
	if filled {
		logger.Info().Int("row", row).Msg("Row already filled, nothing to do")
		return nil
	}
	if row == 0 {
		row, err = r.sink.AppendRow(ctx, dateKey)
		if err != nil {
			return fmt.Errorf("append row for %q: %w", dateKey, err)
		}
		logger.Debug().Int("row", row).Msg("Created date row")
	}

	values, err := retry.DoWithData(ctx, job.Name, r.retry, job.Collect)
	if err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}

	if err := r.sink.WriteCells(ctx, row, job.StartColumn, values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}

	logger.Info().
		Int("row", row).
		Int("values", len(values)).
		Msg("Row updated")

	return nil
}
