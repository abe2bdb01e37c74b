// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists reports, their section text and credit accounts
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/report-drafter/pkg/types"
)

const (
	dbFile    = "report-drafter.db"
	exportDir = "exports"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound reports an unknown report or account.
var ErrNotFound = errors.New("not found")

// Store manages the report database.
type Store struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// Open opens or creates the database at dataDir/report-drafter.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection serialises writers; SQLite allows only one at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dataDir: dataDir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the directory holding the database and exports.
func (s *Store) DataDir() string { return s.dataDir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			grade TEXT NOT NULL DEFAULT '',
			account_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			section_id TEXT NOT NULL,
			content TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (report_id, section_id)
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			quota INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// ReportSummary is one row of the report list.
type ReportSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Topic     string    `json:"topic" yaml:"topic"`
	Subject   string    `json:"subject" yaml:"subject"`
	Grade     string    `json:"grade" yaml:"grade"`
	Sections  int       `json:"sections" yaml:"sections"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// CreateReport inserts a new report with a random id.
func (s *Store) CreateReport(ctx context.Context, topic, subject, grade string) (types.DocumentState, error) {
	id := uuid.NewString()
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, topic, subject, grade, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, topic, subject, grade, ts, ts)
	if err != nil {
		return types.DocumentState{}, fmt.Errorf("inserting report: %w", err)
	}
	return s.GetReport(ctx, id)
}

// SetInfo updates the general information of a report.
func (s *Store) SetInfo(ctx context.Context, id, topic, subject, grade string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET topic = ?, subject = ?, grade = ?, updated_at = ? WHERE id = ?`,
		topic, subject, grade, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("updating report %s: %w", id, err)
	}
	return expectRow(res, "report", id)
}

// GetReport loads a report with every stored section.
func (s *Store) GetReport(ctx context.Context, id string) (types.DocumentState, error) {
	doc := types.DocumentState{ID: id, Sections: map[types.SectionID]string{}}
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT topic, subject, grade, account_id, updated_at FROM reports WHERE id = ?`, id,
	).Scan(&doc.Topic, &doc.Subject, &doc.Grade, &doc.AccountID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.DocumentState{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.DocumentState{}, fmt.Errorf("querying report %s: %w", id, err)
	}
	doc.UpdatedAt, _ = time.Parse(timeLayout, updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT section_id, content FROM sections WHERE report_id = ?`, id)
	if err != nil {
		return types.DocumentState{}, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sectionID, content string
		if err := rows.Scan(&sectionID, &content); err != nil {
			return types.DocumentState{}, fmt.Errorf("scanning section: %w", err)
		}
		doc.Sections[types.SectionID(sectionID)] = content
	}
	return doc, rows.Err()
}

// ReportExists reports whether a report with id is stored.
func (s *Store) ReportExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reports WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying report %s: %w", id, err)
	}
	return true, nil
}

// ListReports returns every report, most recently updated first.
func (s *Store) ListReports(ctx context.Context) ([]ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.topic, r.subject, r.grade, r.updated_at, count(s.section_id)
		 FROM reports r LEFT JOIN sections s ON s.report_id = r.id
		 GROUP BY r.id
		 ORDER BY r.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		var updated string
		if err := rows.Scan(&r.ID, &r.Topic, &r.Subject, &r.Grade, &updated, &r.Sections); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and its sections.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	return expectRow(res, "report", id)
}

// PublishSection stores the text of one section, replacing any previous
// text. Publishing the same text twice leaves the report unchanged.
func (s *Store) PublishSection(ctx context.Context, reportID string, sectionID types.SectionID, text string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ts := s.timestamp()
	res, err := tx.ExecContext(ctx, `UPDATE reports SET updated_at = ? WHERE id = ?`, ts, reportID)
	if err != nil {
		return fmt.Errorf("touching report: %w", err)
	}
	if err := expectRow(res, "report", reportID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sections (report_id, section_id, content, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(report_id, section_id) DO UPDATE SET
			content=excluded.content, updated_at=excluded.updated_at`,
		reportID, string(sectionID), text, ts)
	if err != nil {
		return fmt.Errorf("upserting section %s: %w", sectionID, err)
	}
	return tx.Commit()
}

// SectionWriter publishes sections of one report.
type SectionWriter struct {
	Store    *Store
	ReportID string
}

// Publish stores text under sectionID.
func (w SectionWriter) Publish(ctx context.Context, sectionID types.SectionID, text string) error {
	return w.Store.PublishSection(ctx, w.ReportID, sectionID, text)
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
