// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-drafter/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Paragraph
	}{
		{
			name: "empty text",
			text: "",
			want: []Paragraph{{Kind: KindEmpty}},
		},
		{
			name: "headings",
			text: "### 1. Games\n## Results",
			want: []Paragraph{
				{Kind: KindHeading3, Runs: []Run{{Text: "1. Games"}}},
				{Kind: KindHeading2, Runs: []Run{{Text: "Results"}}},
			},
		},
		{
			name: "bullets with every marker",
			text: "- one\n* two\n+ three",
			want: []Paragraph{
				{Kind: KindBullet, Runs: []Run{{Text: "one"}}},
				{Kind: KindBullet, Runs: []Run{{Text: "two"}}},
				{Kind: KindBullet, Runs: []Run{{Text: "three"}}},
			},
		},
		{
			name: "bold runs",
			text: "Start **bold** middle **more** end",
			want: []Paragraph{{Kind: KindBody, Runs: []Run{
				{Text: "Start "}, {Text: "bold", Bold: true}, {Text: " middle "}, {Text: "more", Bold: true}, {Text: " end"},
			}}},
		},
		{
			name: "bold bullet",
			text: "  - **Step 1:** prepare  ",
			want: []Paragraph{{Kind: KindBullet, Runs: []Run{{Text: "Step 1:", Bold: true}, {Text: " prepare"}}}},
		},
		{
			name: "blank lines kept",
			text: "a\n\n   \nb",
			want: []Paragraph{
				{Kind: KindBody, Runs: []Run{{Text: "a"}}},
				{Kind: KindEmpty},
				{Kind: KindEmpty},
				{Kind: KindBody, Runs: []Run{{Text: "b"}}},
			},
		},
		{
			name: "single hash is body text",
			text: "# Title",
			want: []Paragraph{{Kind: KindBody, Runs: []Run{{Text: "# Title"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{topic: "Mind maps", want: "Report_Mind_maps.docx"},
		{topic: "a  b\tc", want: "Report_a_b_c.docx"},
		{topic: strings.Repeat("x", 40), want: "Report_" + strings.Repeat("x", 30) + ".docx"},
		{topic: "Đổi mới", want: "Report_Đổi_mới.docx"},
		{topic: "a/b", want: "Report_a-b.docx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.topic), tt.topic)
	}
}

func sampleDoc() types.DocumentState {
	return types.DocumentState{
		ID:      "r1",
		Topic:   "Mind maps & reading",
		Subject: "Literature",
		Grade:   "5",
		Sections: map[types.SectionID]string{
			types.SectionReferences: "1. Ministry of Education (2018).",
			types.SectionReason:     "Pupils <struggle> with **main ideas**.\n\n- point one",
			types.SectionTheory:     "",
		},
	}
}

func readDocx(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}
	return parts
}

func TestWriteDocx(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocx(&buf, sampleDoc()))

	parts := readDocx(t, buf.Bytes())
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/numbering.xml"} {
		assert.Contains(t, parts, name)
	}

	doc := parts["word/document.xml"]
	assert.Contains(t, doc, "MIND MAPS &amp; READING", "title page carries the upper-cased topic")
	assert.Contains(t, doc, `<w:br w:type="page"/>`)
	assert.Contains(t, doc, "Pupils &lt;struggle&gt; with ")
	assert.Contains(t, doc, `<w:b/><w:sz w:val="28"/><w:szCs w:val="28"/></w:rPr><w:t xml:space="preserve">main ideas</w:t>`)
	assert.Contains(t, doc, `<w:numId w:val="1"/>`)
	assert.Contains(t, doc, `w:left="1701"`)
	assert.NotContains(t, doc, "III.1. Theoretical basis", "empty sections are skipped")

	reason := strings.Index(doc, "I. Reason for choosing the topic")
	refs := strings.Index(doc, ">References<")
	require.Positive(t, reason)
	require.Positive(t, refs)
	assert.Less(t, reason, refs, "sections follow the catalog order")
	assert.Equal(t, 2, strings.Count(doc, `<w:pStyle w:val="Heading1"/>`))
}

func TestWriteHTML(t *testing.T) {
	doc := sampleDoc()
	doc.Sections[types.SectionEffectiveness] = "| Level | Before | After |\n|---|---|---|\n| Good | 10% | 40% |"

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "<h1>Mind maps &amp; reading</h1>")
	assert.Contains(t, out, "<strong>main ideas</strong>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<section id="effectiveness">`)
	assert.NotContains(t, out, `<section id="theory">`)
	assert.NotContains(t, out, "<struggle>", "raw HTML in section text is not passed through")
}
