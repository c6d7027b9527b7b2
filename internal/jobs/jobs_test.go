package jobs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldwatch/pkg/sheets"
	"yieldwatch/pkg/transport"
)

// stubOpener serves canned bodies keyed by URL. Unknown URLs come back as
// 500s so a job under test sees them as source failures, not panics.
type stubOpener struct {
	bodies  map[string]string
	fetches int32
}

func newStubOpener(bodies map[string]string) *stubOpener {
	return &stubOpener{bodies: bodies}
}

func (o *stubOpener) Open(ctx context.Context) (transport.Session, error) {
	return &stubSession{opener: o}, nil
}

type stubSession struct {
	opener *stubOpener
}

func (s *stubSession) Fetch(ctx context.Context, url string) (*transport.Page, error) {
	atomic.AddInt32(&s.opener.fetches, 1)
	body, ok := s.opener.bodies[url]
	if !ok {
		return &transport.Page{Status: http.StatusInternalServerError, Body: []byte("no responder")}, nil
	}
	return &transport.Page{Status: http.StatusOK, Body: []byte(body)}, nil
}

func (s *stubSession) Close() error { return nil }

// leaderboardOpener serves a paginated envelope with one entry per page
// whose caps value is page*10.
type leaderboardOpener struct {
	endpoint string
	total    int
	fetches  int32
}

func (o *leaderboardOpener) Open(ctx context.Context) (transport.Session, error) {
	return &leaderboardSession{opener: o}, nil
}

type leaderboardSession struct {
	opener *leaderboardOpener
}

func (s *leaderboardSession) Fetch(ctx context.Context, url string) (*transport.Page, error) {
	atomic.AddInt32(&s.opener.fetches, 1)

	page := 1
	if idx := strings.Index(url, "page="); idx >= 0 {
		page, _ = strconv.Atoi(url[idx+len("page="):])
	}
	body := fmt.Sprintf(`{"pagination":{"total":%d},"entries":[{"caps":%d}]}`,
		s.opener.total, page*10)
	return &transport.Page{Status: http.StatusOK, Body: []byte(body)}, nil
}

func (s *leaderboardSession) Close() error { return nil }

func TestCaps_SumsAllPages(t *testing.T) {
	opener := &leaderboardOpener{endpoint: "https://leaderboard.test/v1", total: 5}
	job := Caps(opener, nil, CapsConfig{Endpoint: opener.endpoint})

	values, err := job.Collect(context.Background())
	require.NoError(t, err)

	// 10+20+30+40+50
	require.Equal(t, []any{150.0}, values)
	require.Equal(t, "caps", job.Name)
	require.Equal(t, "2006-01-02", job.DateLayout)
}

func TestCaps_FilledRowFetchesNothing(t *testing.T) {
	sink := sheets.NewMemorySink()
	ctx := context.Background()

	row, err := sink.AppendRow(ctx, "2025-11-03")
	require.NoError(t, err)
	require.NoError(t, sink.WriteCells(ctx, row, 2, []any{150.0}))

	opener := &leaderboardOpener{endpoint: "https://leaderboard.test/v1", total: 5}
	runner := NewRunner(sink).WithClock(fixedClock()).WithRetry(testRetry())

	err = runner.Run(ctx, Caps(opener, nil, CapsConfig{Endpoint: opener.endpoint}))
	require.NoError(t, err)
	require.Zero(t, atomic.LoadInt32(&opener.fetches))
	require.Equal(t, 150.0, sink.Cell(row, 2))
}

func TestCaps_WritesGrandTotal(t *testing.T) {
	sink := sheets.NewMemorySink()
	opener := &leaderboardOpener{endpoint: "https://leaderboard.test/v1", total: 3}
	runner := NewRunner(sink).WithClock(fixedClock()).WithRetry(testRetry())

	err := runner.Run(context.Background(), Caps(opener, nil, CapsConfig{Endpoint: opener.endpoint}))
	require.NoError(t, err)

	row, filled, err := sink.FindRow(context.Background(), "2025-11-03")
	require.NoError(t, err)
	require.True(t, filled)
	require.Equal(t, 60.0, sink.Cell(row, 2))
}
