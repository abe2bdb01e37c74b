// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// Page and text geometry in twips and half-points.
const (
	fontName      = "Times New Roman"
	bodySize      = 28 // 14pt
	headingSize   = 32 // 16pt
	lineSpacing   = 360
	firstIndent   = 720
	marginTop     = 1134
	marginRight   = 1134
	marginBottom  = 1134
	marginLeft    = 1701
	titleBlockGap = 2000
)

// Filename returns the download name for a report on topic.
func Filename(topic string) string {
	r := []rune(strings.TrimSpace(topic))
	if len(r) > 30 {
		r = r[:30]
	}
	var sb strings.Builder
	space := false
	for _, c := range r {
		switch {
		case unicode.IsSpace(c):
			if !space {
				sb.WriteByte('_')
			}
			space = true
			continue
		case c == '/' || c == '\\' || c == '"':
			c = '-'
		}
		sb.WriteRune(c)
		space = false
	}
	return "Report_" + sb.String() + ".docx"
}

// WriteDocx writes doc as a Word document: a title page, a page break, then
// every non-empty content section in catalog order under a level-1
// heading.
func WriteDocx(w io.Writer, doc types.DocumentState) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/document.xml", documentXML(doc)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

func documentXML(doc types.DocumentState) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeTitlePage(&b, doc)

	for _, def := range types.Sections() {
		text := doc.Section(def.ID)
		if !def.ID.IsContent() || text == "" {
			continue
		}
		paragraph(&b, `<w:pStyle w:val="Heading1"/><w:spacing w:before="400" w:after="200"/>`,
			run(def.Title, runProps{bold: true, size: headingSize}))
		for _, p := range Parse(text) {
			writeParagraph(&b, p)
		}
	}

	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`,
		marginTop, marginRight, marginBottom, marginLeft)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeTitlePage(b *strings.Builder, doc types.DocumentState) {
	center := `<w:jc w:val="center"/>`
	paragraph(b, center+`<w:spacing w:before="400"/>`, run("DEPARTMENT OF EDUCATION AND TRAINING ...", runProps{bold: true}))
	paragraph(b, center+fmt.Sprintf(`<w:spacing w:after="%d"/>`, titleBlockGap), run("SCHOOL ...", runProps{bold: true}))
	paragraph(b, center+`<w:spacing w:after="400"/>`, run("TEACHING INITIATIVE REPORT", runProps{bold: true, size: 40, color: "2E74B5"}))
	paragraph(b, center+fmt.Sprintf(`<w:spacing w:after="%d"/>`, titleBlockGap), run(strings.ToUpper(doc.Topic), runProps{bold: true, size: 36}))

	indent := `<w:ind w:left="4000"/><w:spacing w:before="200"/>`
	paragraph(b, indent, run("Field/Subject: ", runProps{bold: true})+run(doc.Subject, runProps{}))
	paragraph(b, indent, run("Grade: ", runProps{bold: true})+run(doc.Grade, runProps{}))
	paragraph(b, indent, run("Author: ", runProps{bold: true})+run("..................................................", runProps{}))

	paragraph(b, center+`<w:spacing w:before="3000"/>`, run("..........., 20...", runProps{italic: true}))
	b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

func writeParagraph(b *strings.Builder, p Paragraph) {
	switch p.Kind {
	case KindEmpty:
		b.WriteString(`<w:p/>`)
	case KindHeading2, KindHeading3:
		style := "Heading2"
		if p.Kind == KindHeading3 {
			style = "Heading3"
		}
		paragraph(b, fmt.Sprintf(`<w:pStyle w:val="%s"/><w:spacing w:before="240" w:after="120"/>`, style),
			run(p.Text(), runProps{}))
	case KindBullet:
		paragraph(b, fmt.Sprintf(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr><w:spacing w:line="%d" w:after="120"/><w:jc w:val="both"/>`, lineSpacing),
			runs(p.Runs))
	default:
		paragraph(b, fmt.Sprintf(`<w:spacing w:line="%d" w:after="120"/><w:ind w:firstLine="%d"/><w:jc w:val="both"/>`, lineSpacing, firstIndent),
			runs(p.Runs))
	}
}

func paragraph(b *strings.Builder, props, content string) {
	b.WriteString(`<w:p><w:pPr>`)
	b.WriteString(props)
	b.WriteString(`</w:pPr>`)
	b.WriteString(content)
	b.WriteString(`</w:p>`)
}

type runProps struct {
	bold   bool
	italic bool
	size   int
	color  string
}

func runs(rs []Run) string {
	var sb strings.Builder
	for _, r := range rs {
		sb.WriteString(run(r.Text, runProps{bold: r.Bold}))
	}
	return sb.String()
}

func run(text string, p runProps) string {
	if p.size == 0 {
		p.size = bodySize
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<w:r><w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`, fontName)
	if p.bold {
		sb.WriteString(`<w:b/>`)
	}
	if p.italic {
		sb.WriteString(`<w:i/>`)
	}
	if p.color != "" {
		fmt.Fprintf(&sb, `<w:color w:val="%s"/>`, p.color)
	}
	fmt.Fprintf(&sb, `<w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr><w:t xml:space="preserve">`, p.size, p.size)
	xml.EscapeText(&sb, []byte(text))
	sb.WriteString(`</w:t></w:r>`)
	return sb.String()
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>` +
	`</Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>` +
	`</Relationships>`

const stylesXML = xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman" w:cs="Times New Roman"/><w:sz w:val="28"/><w:szCs w:val="28"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:line="360"/></w:pPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="2"/></w:pPr><w:rPr><w:b/><w:i/></w:rPr></w:style>` +
	`</w:styles>`

const numberingXML = xml.Header + `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`</w:numbering>`
