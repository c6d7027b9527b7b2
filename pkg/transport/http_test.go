package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPSession_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	opener := NewHTTPOpener(DefaultHTTPConfig())
	sess, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		wantOK     bool
	}{
		{"success", "/ok", 200, `{"status":"ok"}`, true},
		{"not found is a page, not an error", "/missing", 404, "not found", false},
		{"server error is a page, not an error", "/boom", 500, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := sess.Fetch(context.Background(), server.URL+tt.path)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if page.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", page.Status, tt.wantStatus)
			}
			if got := string(page.Body); got != tt.wantBody {
				t.Errorf("Body = %q, want %q", got, tt.wantBody)
			}
			if page.OK() != tt.wantOK {
				t.Errorf("OK() = %v, want %v", page.OK(), tt.wantOK)
			}
		})
	}
}

func TestHTTPSession_FetchNetworkError(t *testing.T) {
	opener := NewHTTPOpener(HTTPConfig{Timeout: 2 * time.Second})
	sess, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close()

	// Closed server: connection refused.
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err = sess.Fetch(context.Background(), url)
	if err == nil {
		t.Fatal("Expected transport error, got nil")
	}

	var terr *Error
	if !errors.As(err, &terr) {
		t.Errorf("Expected *transport.Error, got %T", err)
	}
}

func TestHTTPSession_UserAgentSpoofed(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opener := NewHTTPOpener(DefaultHTTPConfig())
	sess, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close()

	if _, err := sess.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotUA == "" || strings.Contains(gotUA, "Go-http-client") {
		t.Errorf("User agent not spoofed, got %q", gotUA)
	}
}
