package notify

import (
	"fmt"
	"strings"
)

// Digest builds the HTML body of a metrics report. Values that failed to
// resolve render as a placeholder mark instead of dropping the line, so the
// reader sees which sources were unreachable.
type Digest struct {
	title    string
	sections []section
}

type section struct {
	name  string
	lines []line
}

type line struct {
	label string
	value *float64
}

// NewDigest creates a digest with the given title.
func NewDigest(title string) *Digest {
	return &Digest{title: title}
}

// Section starts a new named section.
func (d *Digest) Section(name string) *Digest {
	d.sections = append(d.sections, section{name: name})
	return d
}

// Line appends a labelled percentage value to the current section. A nil
// value marks the source as failed.
func (d *Digest) Line(label string, value *float64) *Digest {
	if len(d.sections) == 0 {
		d.Section("")
	}
	cur := &d.sections[len(d.sections)-1]
	cur.lines = append(cur.lines, line{label: label, value: value})
	return d
}

// HTML renders the digest for the chat channel.
func (d *Digest) HTML() string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", d.title)
	for _, s := range d.sections {
		b.WriteString("\n")
		if s.name != "" {
			fmt.Fprintf(&b, "<u>%s</u>\n", s.name)
		}
		for _, l := range s.lines {
			if l.value == nil {
				fmt.Fprintf(&b, "%s: ❌\n", l.label)
				continue
			}
			fmt.Fprintf(&b, "%s: %.2f%%\n", l.label, *l.value)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
