// Package sqlite persists crawl records in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Pure-Go driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	id               TEXT PRIMARY KEY,
	run_id           TEXT NOT NULL,
	title            TEXT NOT NULL,
	company          TEXT,
	company_logo     TEXT,
	location         TEXT,
	salary           TEXT NOT NULL,
	job_type         TEXT,
	job_category     TEXT,
	career_level     TEXT,
	date_posted      TEXT,
	skills           TEXT,
	description_html TEXT,
	description_text TEXT,
	url              TEXT NOT NULL,
	scraped_at       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS job_links (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	url        TEXT NOT NULL,
	source     TEXT NOT NULL,
	scraped_at TEXT NOT NULL
);`

// RecordStore writes job and link records into SQLite. List columns hold
// JSON arrays.
type RecordStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*RecordStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("output.sqlite.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under
	// concurrent workers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &RecordStore{db: db}, nil
}

// SaveJob inserts a job posting row, ignoring ids already stored.
func (s *RecordStore) SaveJob(ctx context.Context, rec crawler.JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	categories, err := jsonList(rec.Categories)
	if err != nil {
		return err
	}
	skills, err := jsonList(rec.Skills)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO job_postings (
	id, run_id, title, company, company_logo, location, salary, job_type,
	job_category, career_level, date_posted, skills, description_html,
	description_text, url, scraped_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.RunID, rec.Title, rec.Company, rec.CompanyLogoURL, rec.Location,
		rec.Salary, rec.JobType, categories, rec.CareerLevel, rec.DatePosted, skills,
		rec.DescriptionHTML, rec.DescriptionText, rec.SourceURL, rec.ScrapedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", rec.ID, err)
	}
	return nil
}

// SaveLink inserts a link stub row, ignoring ids already stored.
func (s *RecordStore) SaveLink(ctx context.Context, rec crawler.LinkRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO job_links (id, run_id, url, source, scraped_at) VALUES (?,?,?,?,?)`,
		rec.ID, rec.RunID, rec.URL, rec.Source, rec.ScrapedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert link %s: %w", rec.ID, err)
	}
	return nil
}

// CountJobs returns the number of stored job postings.
func (s *RecordStore) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *RecordStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func jsonList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}
