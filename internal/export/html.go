// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/report-drafter/pkg/types"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// WriteHTML writes a standalone HTML preview of doc. Section text is
// rendered as GitHub-flavoured Markdown so tables show up.
func WriteHTML(w io.Writer, doc types.DocumentState) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n", html.EscapeString(doc.Topic))
	fmt.Fprintf(&buf, "<h1>%s</h1>\n<p><strong>Subject:</strong> %s &middot; <strong>Grade:</strong> %s</p>\n",
		html.EscapeString(doc.Topic), html.EscapeString(doc.Subject), html.EscapeString(doc.Grade))

	for _, def := range types.Sections() {
		text := doc.Section(def.ID)
		if !def.ID.IsContent() || text == "" {
			continue
		}
		fmt.Fprintf(&buf, "<section id=\"%s\">\n<h2>%s</h2>\n", def.ID, html.EscapeString(def.Title))
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return fmt.Errorf("rendering %s: %w", def.ID, err)
		}
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</body></html>\n")

	_, err := w.Write(buf.Bytes())
	return err
}
