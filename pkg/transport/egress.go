package transport

import (
	"context"
	"fmt"
	"strings"

	"yieldwatch/pkg/logging"
)

// DefaultEgressURL is the IP echo endpoint used to verify that traffic
// actually leaves through the configured proxy.
const DefaultEgressURL = "https://httpbin.org/ip"

// VerifyEgress fetches an IP echo endpoint through the session and returns
// the reported egress identity. Jobs run this before touching a protected
// origin so a dead proxy fails fast instead of surfacing as page failures.
func VerifyEgress(ctx context.Context, sess Session, url string) (string, error) {
	if url == "" {
		url = DefaultEgressURL
	}

	page, err := sess.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("egress check: %w", err)
	}
	if !page.OK() {
		return "", fmt.Errorf("egress check: unexpected status %d", page.Status)
	}

	identity := strings.TrimSpace(string(page.Body))
	logger := logging.NewLogger("transport")
	logger.Info().
		Str("egress", identity).
		Msg("Egress identity verified")

	return identity, nil
}
