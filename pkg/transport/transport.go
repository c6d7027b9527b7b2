// Package transport provides the network capability used by the collection
// jobs: a Session that fetches a URL and returns the raw page payload.
//
// Two implementations exist. HTTPOpener issues plain HTTP requests through
// resty with an anti-bot round tripper. BrowserOpener drives a headless
// Chrome instance for endpoints that refuse non-browser clients. The
// aggregation core only sees the Session interface, so either one (or a test
// fake) can back a run.
package transport

import (
	"context"
	"fmt"
)

// Page is the payload of one fetched URL.
type Page struct {
	Status int
	Body   []byte
}

// OK reports whether the response status is in the 2xx class.
func (p *Page) OK() bool {
	return p.Status >= 200 && p.Status < 300
}

// Session is a reusable transport handle. A session executes requests
// strictly serially; callers must not share one session between concurrent
// fetches.
type Session interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}

// Opener creates sessions. The batch scheduler allocates a fixed number of
// sessions per batch and closes them when the batch completes.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// Error is a typed transport failure (connection, timeout, navigation).
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
