package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"yieldwatch/pkg/transport"
)

// fetchJSON retrieves url through the session and decodes the body. Browser
// sessions return the pre-element text for JSON endpoints, so the body is
// trimmed before decoding.
func fetchJSON(ctx context.Context, sess transport.Session, url string, v any) error {
	page, err := sess.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if !page.OK() {
		return fmt.Errorf("fetch %s: status %d", url, page.Status)
	}
	body := strings.TrimSpace(string(page.Body))
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// coerceNumber parses a JSON value that arrives either as a number or as a
// quoted numeric string. Several of the upstream APIs switch between the
// two representations.
func coerceNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("value is absent")
	}
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}
