// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export turns a report into a downloadable document: a Word file
// built from a line-based reading of the section Markdown, or an HTML
// preview rendered with goldmark.
package export

import (
	"regexp"
	"strings"
)

// Kind classifies one paragraph.
type Kind int

const (
	KindEmpty Kind = iota
	KindBody
	KindBullet
	KindHeading2
	KindHeading3
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is one line of section text after parsing.
type Paragraph struct {
	Kind Kind
	Runs []Run
}

// Text returns the paragraph text without formatting.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

var boldPattern = regexp.MustCompile(`\*\*.*?\*\*`)

// Parse reads section text line by line. "### " and "## " start headings,
// "- ", "* " and "+ " start bullets, "**x**" marks bold runs and blank
// lines are kept as empty paragraphs. Everything else is body text.
func Parse(text string) []Paragraph {
	if text == "" {
		return []Paragraph{{Kind: KindEmpty}}
	}

	var out []Paragraph
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			out = append(out, Paragraph{Kind: KindEmpty})
		case strings.HasPrefix(line, "### "):
			out = append(out, Paragraph{Kind: KindHeading3, Runs: []Run{{Text: strings.TrimPrefix(line, "### ")}}})
		case strings.HasPrefix(line, "## "):
			out = append(out, Paragraph{Kind: KindHeading2, Runs: []Run{{Text: strings.TrimPrefix(line, "## ")}}})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "), strings.HasPrefix(line, "+ "):
			out = append(out, Paragraph{Kind: KindBullet, Runs: splitBold(line[2:])})
		default:
			out = append(out, Paragraph{Kind: KindBody, Runs: splitBold(line)})
		}
	}
	return out
}

func splitBold(line string) []Run {
	var runs []Run
	last := 0
	for _, loc := range boldPattern.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: line[last:loc[0]]})
		}
		if inner := line[loc[0]+2 : loc[1]-2]; inner != "" {
			runs = append(runs, Run{Text: inner, Bold: true})
		}
		last = loc[1]
	}
	if last < len(line) {
		runs = append(runs, Run{Text: line[last:]})
	}
	return runs
}
