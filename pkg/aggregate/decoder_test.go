package aggregate

import (
	"errors"
	"testing"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSum float64
		wantErr bool
	}{
		{
			name:    "sums numeric fields",
			body:    `{"entries":[{"caps":100},{"caps":250},{"caps":7}]}`,
			wantSum: 357,
		},
		{
			name:    "string numbers with separators are coerced",
			body:    `{"entries":[{"caps":"1,500"},{"caps":"2.5"}]}`,
			wantSum: 1502.5,
		},
		{
			name:    "record with missing field contributes zero",
			body:    `{"entries":[{"caps":10},{"rank":3},{"caps":5}]}`,
			wantSum: 15,
		},
		{
			name:    "record with uncoercible field contributes zero",
			body:    `{"entries":[{"caps":"n/a"},{"caps":true},{"caps":40}]}`,
			wantSum: 40,
		},
		{
			name:    "empty container sums to zero",
			body:    `{"entries":[]}`,
			wantSum: 0,
		},
		{
			name:    "missing container is fatal",
			body:    `{"pagination":{"total":3}}`,
			wantErr: true,
		},
		{
			name:    "container of wrong shape is fatal",
			body:    `{"entries":{"caps":10}}`,
			wantErr: true,
		},
		{
			name:    "non-JSON payload is fatal",
			body:    `<html>blocked</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := decodePage([]byte(tt.body), "entries", "caps")
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodePage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var derr *DecodeError
				if !errors.As(err, &derr) {
					t.Errorf("Expected *DecodeError, got %T", err)
				}
				return
			}
			if sum != tt.wantSum {
				t.Errorf("decodePage() = %v, want %v", sum, tt.wantSum)
			}
		})
	}
}

func TestDecodeTotal(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal int
		wantErr   bool
	}{
		{"total present", `{"pagination":{"total":42},"entries":[]}`, 42, false},
		{"pagination absent defaults to one", `{"entries":[]}`, 1, false},
		{"total field absent defaults to one", `{"pagination":{},"entries":[]}`, 1, false},
		{"explicit zero is kept", `{"pagination":{"total":0}}`, 0, false},
		{"malformed body fails", `not json`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := decodeTotal([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeTotal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && total != tt.wantTotal {
				t.Errorf("decodeTotal() = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		endpoint string
		page     int
		want     string
	}{
		{"https://api.example.com/v1/leaderboard", 3, "https://api.example.com/v1/leaderboard?page=3"},
		{"https://api.example.com/v1/leaderboard?season=1", 2, "https://api.example.com/v1/leaderboard?season=1&page=2"},
	}

	for _, tt := range tests {
		if got := pageURL(tt.endpoint, tt.page); got != tt.want {
			t.Errorf("pageURL(%q, %d) = %q, want %q", tt.endpoint, tt.page, got, tt.want)
		}
	}
}
