package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

func TestSaveJobInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	rec := crawler.JobRecord{
		ID:              "abc123",
		RunID:           "run-1",
		Title:           "Data Engineer",
		Company:         "Acme",
		Location:        "Cairo, Egypt",
		Salary:          crawler.SalaryNotDisclosed,
		JobType:         "Full Time",
		Categories:      []string{"IT/Software Development"},
		CareerLevel:     "Experienced",
		DatePosted:      "2 days ago",
		DescriptionHTML: "<p>Build pipelines</p>",
		DescriptionText: "Build pipelines",
		SourceURL:       "https://wuzzuf.net/jobs/p/abc-Data-Engineer",
		ScrapedAt:       time.Unix(1700000000, 0).UTC(),
	}

	mock.ExpectExec("(?s)INSERT INTO job_postings.*ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(
			rec.ID,
			rec.RunID,
			rec.Title,
			rec.Company,
			rec.CompanyLogoURL,
			rec.Location,
			rec.Salary,
			rec.JobType,
			rec.Categories,
			rec.CareerLevel,
			rec.DatePosted,
			[]string{},
			rec.DescriptionHTML,
			rec.DescriptionText,
			rec.SourceURL,
			rec.ScrapedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveJob(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLinkInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "jobs", "links")
	require.NoError(t, err)

	rec := crawler.LinkRecord{
		ID:        "def456",
		RunID:     "run-1",
		URL:       "https://wuzzuf.net/jobs/p/def",
		Source:    "wuzzuf.net",
		ScrapedAt: time.Unix(1700000000, 0).UTC(),
	}
	mock.ExpectExec("INSERT INTO links").
		WithArgs(rec.ID, rec.RunID, rec.URL, rec.Source, rec.ScrapedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, store.SaveLink(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveJobWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO job_postings").WillReturnError(errors.New("connection reset"))
	err = store.SaveJob(context.Background(), crawler.JobRecord{ID: "x", Title: "t"})
	require.ErrorContains(t, err, "insert job x")
	require.ErrorContains(t, err, "connection reset")

	require.Error(t, store.SaveJob(context.Background(), crawler.JobRecord{}))
}

func TestEnsureSchemaCreatesTables(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS job_postings").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS job_links").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTables(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(nil, "", "")
	require.Error(t, err)
	_, err = NewWithPool(mock, "jobs; DROP TABLE x", "")
	require.ErrorContains(t, err, "invalid table name")
}
