package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodePage locates the record container in a page payload and sums the
// numeric field across all records. Container missing is fatal for the
// page; a record whose field is absent or uncoercible contributes 0.
func decodePage(body []byte, entriesField, sumField string) (float64, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("payload is not a JSON object: %v", err)}
	}

	raw, ok := envelope[entriesField]
	if !ok {
		return 0, &DecodeError{Reason: fmt.Sprintf("no %q container in response", entriesField)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("%q is not a record array: %v", entriesField, err)}
	}

	var sum float64
	for _, record := range records {
		sum += coerceNumber(record[sumField])
	}
	return sum, nil
}

// coerceNumber converts a record field to float64, tolerating string-typed
// numbers with thousands separators. Anything else counts as 0.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// decodeTotal reads pagination.total from a page-1 envelope. A missing
// pagination block or total field degrades to a single-page run rather than
// failing; only an explicit 0 is kept as 0. A payload that is not a JSON
// object at all is a discovery failure.
func decodeTotal(body []byte) (int, error) {
	var envelope struct {
		Pagination *struct {
			Total *int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("malformed first page: %w", err)
	}
	if envelope.Pagination == nil || envelope.Pagination.Total == nil {
		return 1, nil
	}
	return *envelope.Pagination.Total, nil
}
