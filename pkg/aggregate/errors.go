package aggregate

import "fmt"

// DiscoveryError indicates the total page count could not be determined.
// No pages can be planned without it, so it escalates immediately.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("pagination discovery: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a page payload was malformed: not parseable as JSON
// or missing the expected record container. A record whose numeric field
// cannot be coerced is tolerated (contributes 0) and does not produce this
// error.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode page: %s", e.Reason)
}

// HighFailureRateError indicates too many pages failed for the computed
// total to be trustworthy. The run is failed as a whole so the outer retry
// can take another attempt instead of silently publishing an undercount.
type HighFailureRateError struct {
	Failed int
	Total  int
}

func (e *HighFailureRateError) Error() string {
	rate := 0.0
	if e.Total > 0 {
		rate = float64(e.Failed) / float64(e.Total) * 100
	}
	return fmt.Sprintf("%d of %d pages failed (%.1f%%), aggregate discarded", e.Failed, e.Total, rate)
}
