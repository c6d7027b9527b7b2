// Package testutil provides testing utilities for the collection jobs.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockLeaderboard is a configurable paginated leaderboard server. It serves
// the standard envelope (pagination.total plus an entries array) and can
// inject transient failures on selected pages.
type MockLeaderboard struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	totalPages   int
	entriesField string
	sumField     string
	pageSums     map[int][]float64

	// failures maps page number to how many requests should still fail
	// with a 500 before the page starts succeeding.
	failures map[int]int

	// Tracking
	RequestCount int
	PageRequests map[int]int
}

// NewMockLeaderboard creates a mock server with the given page count. Each
// page defaults to a single entry whose value equals the page number.
func NewMockLeaderboard(totalPages int) *MockLeaderboard {
	mock := &MockLeaderboard{
		handlers:     make(map[string]func(w http.ResponseWriter, r *http.Request)),
		totalPages:   totalPages,
		entriesField: "entries",
		sumField:     "caps",
		pageSums:     make(map[int][]float64),
		failures:     make(map[int]int),
		PageRequests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			mock.mu.Lock()
			mock.RequestCount++
			mock.mu.Unlock()
			handler(w, r)
			return
		}

		mock.leaderboardHandler(w, r)
	}))

	return mock
}

// URL returns the leaderboard endpoint URL.
func (m *MockLeaderboard) URL() string {
	return m.server.URL + "/leaderboard"
}

// BaseURL returns the mock server root.
func (m *MockLeaderboard) BaseURL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLeaderboard) Close() {
	m.server.Close()
}

// SetFields overrides the envelope field names.
func (m *MockLeaderboard) SetFields(entriesField, sumField string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entriesField = entriesField
	m.sumField = sumField
}

// SetPageEntries sets the entry values served for one page.
func (m *MockLeaderboard) SetPageEntries(page int, values ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSums[page] = values
}

// FailPage makes the given page return a 500 for its next n requests.
func (m *MockLeaderboard) FailPage(page, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[page] = n
}

// SetHandler sets a custom handler for a specific path.
func (m *MockLeaderboard) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockLeaderboard) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests the server has seen.
func (m *MockLeaderboard) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how often one page was requested.
func (m *MockLeaderboard) GetPageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[page]
}

// ExpectedTotal sums all configured page entries, which is what a full
// aggregation run over the server should produce.
func (m *MockLeaderboard) ExpectedTotal() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for page := 1; page <= m.totalPages; page++ {
		for _, v := range m.pageValues(page) {
			total += v
		}
	}
	return total
}

func (m *MockLeaderboard) pageValues(page int) []float64 {
	if values, ok := m.pageSums[page]; ok {
		return values
	}
	return []float64{float64(page)}
}

func (m *MockLeaderboard) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	m.mu.Lock()
	m.RequestCount++
	m.PageRequests[page]++
	remaining := m.failures[page]
	if remaining > 0 {
		m.failures[page] = remaining - 1
	}
	entriesField := m.entriesField
	sumField := m.sumField
	values := m.pageValues(page)
	total := m.totalPages
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if remaining > 0 {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "upstream unavailable"}`))
		return
	}
	if page > total {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"pagination":{"total":%d},%q:[]}`, total, entriesField)
		return
	}

	body := fmt.Sprintf(`{"pagination":{"total":%d},%q:[`, total, entriesField)
	for i, v := range values {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"rank":%d,%q:%g}`, i+1, sumField, v)
	}
	body += "]}"

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
