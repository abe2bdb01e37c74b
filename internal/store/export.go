// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// ExportSection is one section of an exported report.
type ExportSection struct {
	ID      types.SectionID `json:"id" yaml:"id"`
	Title   string          `json:"title" yaml:"title"`
	Content string          `json:"content" yaml:"content"`
}

// ExportReport is the portable form of a report, sections in document
// order.
type ExportReport struct {
	ID       string          `json:"id" yaml:"id"`
	Topic    string          `json:"topic" yaml:"topic"`
	Subject  string          `json:"subject" yaml:"subject"`
	Grade    string          `json:"grade" yaml:"grade"`
	Sections []ExportSection `json:"sections" yaml:"sections"`
}

// NewExportReport orders the sections of doc by the catalog and drops
// empty ones.
func NewExportReport(doc types.DocumentState) ExportReport {
	out := ExportReport{ID: doc.ID, Topic: doc.Topic, Subject: doc.Subject, Grade: doc.Grade}
	for _, def := range types.Sections() {
		text := doc.Section(def.ID)
		if !def.ID.IsContent() || text == "" {
			continue
		}
		out.Sections = append(out.Sections, ExportSection{ID: def.ID, Title: def.Title, Content: text})
	}
	return out
}

// EncodeYAML writes the report as YAML.
func EncodeYAML(w io.Writer, doc types.DocumentState) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewExportReport(doc)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// EncodeJSON writes the report as indented JSON.
func EncodeJSON(w io.Writer, doc types.DocumentState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExportReport(doc)); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// ExportYAML writes report id to dataDir/exports/<id>.yaml and returns the
// path.
func (s *Store) ExportYAML(ctx context.Context, id string) (string, error) {
	return s.exportFile(ctx, id, ".yaml", EncodeYAML)
}

// ExportJSON writes report id to dataDir/exports/<id>.json and returns the
// path.
func (s *Store) ExportJSON(ctx context.Context, id string) (string, error) {
	return s.exportFile(ctx, id, ".json", EncodeJSON)
}

func (s *Store) exportFile(ctx context.Context, id, ext string, encode func(io.Writer, types.DocumentState) error) (string, error) {
	doc, err := s.GetReport(ctx, id)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.dataDir, exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, id+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := encode(f, doc); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
