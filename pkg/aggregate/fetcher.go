package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"yieldwatch/pkg/logging"
	"yieldwatch/pkg/transport"
)

// PageOutcome is the single result produced for one page per run. Retries
// happen inside producing this value.
type PageOutcome struct {
	Page int
	Sum  float64
	Err  error
}

// RunState accumulates the result of one run.
type RunState struct {
	// GrandTotal is the sum of the numeric field across all successful pages.
	GrandTotal float64

	// Processed counts successfully folded pages.
	Processed int

	// FailedPages lists pages that failed both attempts. Diagnostic only;
	// ordering is not significant.
	FailedPages []int
}

// PageCache stores per-page sums so an outer retry attempt refetches only
// the pages that failed previously. Implementations live outside the core;
// a nil cache disables the hook.
type PageCache interface {
	Get(ctx context.Context, endpoint string, page int) (sum float64, ok bool, err error)
	Set(ctx context.Context, endpoint string, page int, sum float64) error
}

// Fetcher drives the whole paginated aggregation: discovery, batched
// bounded-concurrency fetching, per-page retry, and the failure-rate gate.
type Fetcher struct {
	opener transport.Opener
	cache  PageCache
	config Config
	logger zerolog.Logger
}

// New creates a fetcher. Zero config fields fall back to defaults.
func New(opener transport.Opener, cfg Config) *Fetcher {
	cfg.applyDefaults()
	return &Fetcher{
		opener: opener,
		config: cfg,
		logger: logging.NewLogger("aggregate"),
	}
}

// WithCache attaches a page cache consulted before each fetch.
func (f *Fetcher) WithCache(cache PageCache) *Fetcher {
	f.cache = cache
	return f
}

// Run fetches and sums all pages of endpoint. On success the returned state
// satisfies Processed + len(FailedPages) == totalPages. The run fails with
// HighFailureRateError when more than MaxFailureRate of pages failed, and
// with DiscoveryError when the page count cannot be determined.
func (f *Fetcher) Run(ctx context.Context, endpoint string) (*RunState, error) {
	start := time.Now()

	totalPages, err := f.discoverTotal(ctx, endpoint)
	if err != nil {
		runsTotal.WithLabelValues("discovery_error").Inc()
		return nil, err
	}

	state := &RunState{}
	for batchStart := 1; batchStart <= totalPages; batchStart += f.config.BatchSize {
		batchEnd := min(batchStart+f.config.BatchSize-1, totalPages)
		if err := f.runBatch(ctx, endpoint, batchStart, batchEnd, state); err != nil {
			runsTotal.WithLabelValues("aborted").Inc()
			return nil, err
		}

		f.logger.Info().
			Int("batch_start", batchStart).
			Int("batch_end", batchEnd).
			Int("processed", state.Processed).
			Int("failed", len(state.FailedPages)).
			Int("total", totalPages).
			Msg("Batch complete")
	}

	failed := len(state.FailedPages)
	if totalPages > 0 && float64(failed)/float64(totalPages) > f.config.MaxFailureRate {
		runsTotal.WithLabelValues("high_failure_rate").Inc()
		f.logger.Error().
			Int("failed", failed).
			Int("total", totalPages).
			Float64("grand_total", state.GrandTotal).
			Msg("Failure rate gate tripped, discarding aggregate")
		return state, &HighFailureRateError{Failed: failed, Total: totalPages}
	}

	runsTotal.WithLabelValues("ok").Inc()
	f.logger.Info().
		Float64("grand_total", state.GrandTotal).
		Int("processed", state.Processed).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Aggregation complete")

	return state, nil
}

// runBatch allocates a session pool for one batch, dispatches its pages in
// chunks, and folds outcomes into state. Sessions never outlive the batch.
func (f *Fetcher) runBatch(ctx context.Context, endpoint string, start, end int, state *RunState) error {
	pages := end - start + 1

	workers := make([]transport.Session, 0, min(f.config.MaxConcurrent, pages))
	for i := 0; i < cap(workers); i++ {
		sess, err := f.opener.Open(ctx)
		if err != nil {
			for _, w := range workers {
				w.Close()
			}
			return fmt.Errorf("allocate batch sessions: %w", err)
		}
		workers = append(workers, sess)
	}
	defer func() {
		for _, w := range workers {
			w.Close()
		}
	}()

	for chunkStart := start; chunkStart <= end; chunkStart += f.config.MaxConcurrent {
		chunkEnd := min(chunkStart+f.config.MaxConcurrent-1, end)
		outcomes := make([]PageOutcome, chunkEnd-chunkStart+1)

		// Round-robin slot -> session. A chunk never exceeds the pool size,
		// so each session serves at most one in-flight page.
		var wg sync.WaitGroup
		for slot := range outcomes {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				outcomes[slot] = f.fetchPage(ctx, workers[slot%len(workers)], endpoint, chunkStart+slot)
			}(slot)
		}
		wg.Wait()

		// Barrier passed: fold with no concurrent mutators.
		for _, out := range outcomes {
			if out.Err != nil {
				state.FailedPages = append(state.FailedPages, out.Page)
				f.logger.Warn().
					Err(out.Err).
					Int("page", out.Page).
					Msg("Page failed both attempts")
				continue
			}
			state.GrandTotal += out.Sum
			state.Processed++
		}
	}

	return nil
}

// fetchPage produces the single PageOutcome for one page: attempt, short
// delay, one more attempt. Errors never propagate past this boundary.
func (f *Fetcher) fetchPage(ctx context.Context, sess transport.Session, endpoint string, page int) PageOutcome {
	if f.cache != nil {
		sum, ok, err := f.cache.Get(ctx, endpoint, page)
		if err != nil {
			f.logger.Warn().Err(err).Int("page", page).Msg("Page cache read failed")
		} else if ok {
			pagesFetchedTotal.WithLabelValues("cache_hit").Inc()
			return PageOutcome{Page: page, Sum: sum}
		}
	}

	sum, err := f.fetchPageOnce(ctx, sess, endpoint, page)
	if err != nil {
		pageRetriesTotal.Inc()
		f.logger.Debug().
			Err(err).
			Int("page", page).
			Dur("delay", f.config.RetryDelay).
			Msg("Page fetch failed, retrying once")

		if werr := f.waitRetryDelay(ctx); werr != nil {
			pagesFetchedTotal.WithLabelValues("failure").Inc()
			return PageOutcome{Page: page, Err: werr}
		}
		sum, err = f.fetchPageOnce(ctx, sess, endpoint, page)
	}

	if err != nil {
		pagesFetchedTotal.WithLabelValues("failure").Inc()
		return PageOutcome{Page: page, Err: err}
	}

	pagesFetchedTotal.WithLabelValues("success").Inc()
	if f.cache != nil {
		if err := f.cache.Set(ctx, endpoint, page, sum); err != nil {
			f.logger.Warn().Err(err).Int("page", page).Msg("Page cache write failed")
		}
	}

	return PageOutcome{Page: page, Sum: sum}
}

func (f *Fetcher) fetchPageOnce(ctx context.Context, sess transport.Session, endpoint string, pageNum int) (float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.PageTimeout)
	defer cancel()

	start := time.Now()
	page, err := sess.Fetch(reqCtx, pageURL(endpoint, pageNum))
	pageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}
	if !page.OK() {
		return 0, fmt.Errorf("page %d returned status %d", pageNum, page.Status)
	}

	return decodePage(page.Body, f.config.EntriesField, f.config.SumField)
}

func (f *Fetcher) waitRetryDelay(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.config.RetryDelay):
		return nil
	}
}
