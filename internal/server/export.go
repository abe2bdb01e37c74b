// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/report-drafter/internal/export"
	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/pkg/types"
)

type exportFormat struct {
	contentType string
	ext         string
	write       func(io.Writer, types.DocumentState) error
}

var exportFormats = map[string]exportFormat{
	"docx": {
		contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ext:         ".docx",
		write:       export.WriteDocx,
	},
	"html": {contentType: "text/html; charset=utf-8", ext: ".html", write: export.WriteHTML},
	"yaml": {contentType: "application/yaml", ext: ".yaml", write: store.EncodeYAML},
	"json": {contentType: "application/json", ext: ".json", write: store.EncodeJSON},
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "format")
	format, ok := exportFormats[name]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Errorf("unknown export format %q", name))
		return
	}
	doc, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	// Render fully before writing so a failure can still become an error
	// response.
	var buf bytes.Buffer
	if err := format.write(&buf, doc); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	filename := strings.TrimSuffix(export.Filename(doc.Topic), ".docx") + format.ext
	w.Header().Set("Content-Type", format.contentType)
	if name != "html" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
