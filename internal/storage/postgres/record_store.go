// Package postgres persists crawl records in Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultJobsTable  = "job_postings"
	defaultLinksTable = "job_links"
)

// Config controls the Postgres connection pool used for record rows.
type Config struct {
	DSN             string
	JobsTable       string
	LinksTable      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RecordStore writes job and link records into Postgres. Rows are keyed by
// record id, so re-crawling a posting never duplicates it.
type RecordStore struct {
	pool       execCloser
	jobsTable  string
	linksTable string
}

// New creates a Postgres-backed RecordStore using the provided config.
func New(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("output.postgres.dsn is required")
	}
	jobs, links, err := tableNames(cfg.JobsTable, cfg.LinksTable)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{pool: pool, jobsTable: jobs, linksTable: links}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, jobsTable, linksTable string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	jobs, links, err := tableNames(jobsTable, linksTable)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: pool, jobsTable: jobs, linksTable: links}, nil
}

func tableNames(jobs, links string) (string, string, error) {
	if jobs == "" {
		jobs = defaultJobsTable
	}
	if links == "" {
		links = defaultLinksTable
	}
	for _, name := range []string{jobs, links} {
		if !validTableName.MatchString(name) {
			return "", "", fmt.Errorf("invalid table name %q", name)
		}
	}
	return jobs, links, nil
}

// EnsureSchema creates the record tables when they do not exist.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id               TEXT PRIMARY KEY,
	run_id           TEXT NOT NULL,
	title            TEXT NOT NULL,
	company          TEXT,
	company_logo     TEXT,
	location         TEXT,
	salary           TEXT NOT NULL,
	job_type         TEXT,
	job_category     TEXT[],
	career_level     TEXT,
	date_posted      TEXT,
	skills           TEXT[],
	description_html TEXT,
	description_text TEXT,
	url              TEXT NOT NULL,
	scraped_at       TIMESTAMPTZ NOT NULL
)`, s.jobsTable),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	url        TEXT NOT NULL,
	source     TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL
)`, s.linksTable),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveJob inserts a job posting row, ignoring ids already stored.
func (s *RecordStore) SaveJob(ctx context.Context, rec crawler.JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	run_id,
	title,
	company,
	company_logo,
	location,
	salary,
	job_type,
	job_category,
	career_level,
	date_posted,
	skills,
	description_html,
	description_text,
	url,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO NOTHING`, s.jobsTable)

	args := []any{
		rec.ID,
		rec.RunID,
		rec.Title,
		rec.Company,
		rec.CompanyLogoURL,
		rec.Location,
		rec.Salary,
		rec.JobType,
		nonNil(rec.Categories),
		rec.CareerLevel,
		rec.DatePosted,
		nonNil(rec.Skills),
		rec.DescriptionHTML,
		rec.DescriptionText,
		rec.SourceURL,
		rec.ScrapedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job %s: %w", rec.ID, err)
	}
	return nil
}

// SaveLink inserts a link stub row, ignoring ids already stored.
func (s *RecordStore) SaveLink(ctx context.Context, rec crawler.LinkRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, run_id, url, source, scraped_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING`, s.linksTable)
	if _, err := s.pool.Exec(ctx, query, rec.ID, rec.RunID, rec.URL, rec.Source, rec.ScrapedAt); err != nil {
		return fmt.Errorf("insert link %s: %w", rec.ID, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
