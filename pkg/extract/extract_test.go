package extract

import (
	"reflect"
	"regexp"
	"testing"
)

const perpsPageText = `Perps Overview
Total Volume
$1,234,567.89
Open Interest
$88,100
Liquidity Pool
12,345,678.90 USDT
$12,340,000
TVL
$45,600,000
Daily APY
3.45%`

func TestLines_PlainText(t *testing.T) {
	got := Lines("Total Volume\n\n  $1,234  \n")
	want := []string{"Total Volume", "$1,234"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
}

func TestLines_HTML(t *testing.T) {
	html := `<html><body>
		<div><span>Total Volume</span><span>$1,234,567.89</span></div>
		<p>Daily APY</p>
		<p>3.45%</p>
	</body></html>`

	got := Lines(html)
	want := []string{"Total Volume", "$1,234,567.89", "Daily APY", "3.45%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
}

func TestAfter(t *testing.T) {
	lines := Lines(perpsPageText)

	tests := []struct {
		name    string
		keyword string
		prefix  string
		want    float64
		wantOK  bool
	}{
		{"dollar value below keyword", "Total Volume", "$", 1234567.89, true},
		{"prefix skips intermediate lines", "Liquidity Pool", "$", 12340000, true},
		{"no prefix takes first numeric line", "Liquidity Pool", "", 12345678.90, true},
		{"keyword absent", "Borrowed", "$", 0, false},
		{"keyword on last line", "3.45%", "$", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := After(lines, tt.keyword, tt.prefix)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("After(%q, %q) = (%v, %v), want (%v, %v)",
					tt.keyword, tt.prefix, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAmountAbove(t *testing.T) {
	marker := regexp.MustCompile(`^[\d,]+\.\d{2} USDT$`)
	lines := Lines(perpsPageText)

	got, ok := AmountAbove(lines, marker)
	if !ok || got != 88100 {
		t.Errorf("AmountAbove() = (%v, %v), want (88100, true)", got, ok)
	}

	if _, ok := AmountAbove([]string{"no marker here"}, marker); ok {
		t.Error("AmountAbove() matched without a marker line")
	}

	if _, ok := AmountAbove([]string{"100.00 USDT", "no dollar line"}, marker); ok {
		t.Error("AmountAbove() matched without a preceding dollar line")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		label  string
		want   float64
		wantOK bool
	}{
		{"same line", "Current APY: 4.56% as of today", "Current APY", 4.56, true},
		{"across lines", "savUSD\nvault\n7d APY\n12.3%", "7d APY", 12.3, true},
		{"case insensitive", "current apy 9%", "Current APY", 9, true},
		{"label absent", "TVL $1,234", "APY", 0, false},
		{"label without value", "APY coming soon", "APY", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percent(tt.text, tt.label)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Percent(%q) = (%v, %v), want (%v, %v)",
					tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
