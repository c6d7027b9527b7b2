// Package extract pulls numeric fields out of rendered page text. Each
// helper is an independent keyword strategy; none of them are coupled to
// the aggregation engine.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// Lines flattens a page payload into visible text lines. HTML documents are
// parsed and leaf-element texts collected; plain text (a browser-rendered
// body) is split as-is.
func Lines(payload string) []string {
	if !strings.Contains(payload, "<") {
		return splitLines(payload)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return splitLines(payload)
	}

	var lines []string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		lines = append(lines, splitLines(s.Text())...)
	})

	if len(lines) == 0 {
		return splitLines(doc.Text())
	}
	return lines
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// After returns the first numeric token on a line following the line that
// contains keyword. A non-empty prefix restricts candidate lines, which
// keeps a "$1,234" value from matching a nearby percentage.
func After(lines []string, keyword, prefix string) (float64, bool) {
	for i, l := range lines {
		if !strings.Contains(l, keyword) {
			continue
		}
		for _, candidate := range lines[i+1:] {
			if prefix != "" && !strings.HasPrefix(candidate, prefix) {
				continue
			}
			if v, ok := firstNumber(candidate); ok {
				return v, true
			}
		}
		return 0, false
	}
	return 0, false
}

// AmountAbove finds the first line matching marker and walks backwards to
// the nearest "$"-prefixed line, returning its numeric value. Used for
// table cells whose dollar amount renders above the token-denominated one.
func AmountAbove(lines []string, marker *regexp.Regexp) (float64, bool) {
	for i, l := range lines {
		if !marker.MatchString(l) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if !strings.HasPrefix(lines[j], "$") {
				continue
			}
			if v, ok := firstNumber(lines[j]); ok {
				return v, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Percent pulls "label ... N%" out of free-form text. The label and the
// value may be separated by arbitrary content.
func Percent(text, label string) (float64, bool) {
	pattern, err := regexp.Compile(`(?is)` + regexp.QuoteMeta(label) + `.*?([\d.]+)%`)
	if err != nil {
		return 0, false
	}
	groups := pattern.FindStringSubmatch(text)
	if len(groups) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstNumber(line string) (float64, bool) {
	token := numberPattern.FindString(strings.ReplaceAll(line, ",", ""))
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
