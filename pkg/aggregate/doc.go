// Package aggregate implements the paginated aggregation fetcher: it
// discovers the total page count of a paginated endpoint, fetches every page
// under a bounded-concurrency batch scheduler, and sums a numeric field
// across all records.
//
// Example usage:
//
//	opener := transport.NewHTTPOpener(transport.DefaultHTTPConfig())
//	fetcher := aggregate.New(opener, aggregate.DefaultConfig())
//	state, err := fetcher.Run(ctx, "https://api.example.com/v1/leaderboard")
//
// The fetcher:
//   - Fetches page 1 to determine total pages (pagination.total)
//   - Processes pages in sequential batches of BatchSize
//   - Within a batch, dispatches chunks of MaxConcurrent pages across a
//     fixed pool of transport sessions, round-robin
//   - Retries each page once after a short delay before recording a failure
//   - Fails the whole run when more than MaxFailureRate of pages failed
//
// Sessions are allocated at batch start and closed at batch end, so peak
// transport load never exceeds MaxConcurrent and no session outlives its
// batch. Run state is folded after each chunk's barrier, never concurrently.
package aggregate
