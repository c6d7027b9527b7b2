package aggregate

import (
	"context"
	"fmt"
	"strings"

	"yieldwatch/pkg/transport"
)

// pageURL appends the page parameter to the endpoint template.
func pageURL(endpoint string, page int) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", endpoint, sep, page)
}

// discoverTotal fetches page 1 and reads the total page count from the
// response envelope. One short retry is taken before the failure escalates
// as a DiscoveryError.
func (f *Fetcher) discoverTotal(ctx context.Context, endpoint string) (int, error) {
	sess, err := f.opener.Open(ctx)
	if err != nil {
		return 0, &DiscoveryError{Err: err}
	}
	defer sess.Close()

	total, err := f.discoverOnce(ctx, sess, endpoint)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Discovery attempt failed, retrying")
		if werr := f.waitRetryDelay(ctx); werr != nil {
			return 0, &DiscoveryError{Err: werr}
		}
		total, err = f.discoverOnce(ctx, sess, endpoint)
	}
	if err != nil {
		return 0, &DiscoveryError{Err: err}
	}

	f.logger.Info().
		Str("endpoint", endpoint).
		Int("total_pages", total).
		Msg("Pagination discovered")

	return total, nil
}

func (f *Fetcher) discoverOnce(ctx context.Context, sess transport.Session, endpoint string) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.DiscoveryTimeout)
	defer cancel()

	page, err := sess.Fetch(reqCtx, pageURL(endpoint, 1))
	if err != nil {
		return 0, err
	}
	if !page.OK() {
		return 0, fmt.Errorf("first page returned status %d", page.Status)
	}

	return decodeTotal(page.Body)
}
