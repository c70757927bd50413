package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

func TestRecordStoreInsertsOncePerID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	rec := crawler.JobRecord{
		ID:         "abc",
		RunID:      "run-1",
		Title:      "Backend Engineer",
		Salary:     crawler.SalaryNotDisclosed,
		Skills:     []string{"Go", "SQL"},
		SourceURL:  "https://wuzzuf.net/jobs/p/abc",
		ScrapedAt:  time.Unix(1700000000, 0),
		Categories: nil,
	}
	require.NoError(t, store.SaveJob(ctx, rec))
	rec.Title = "Changed"
	require.NoError(t, store.SaveJob(ctx, rec))

	n, err := store.CountJobs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var title, skills, categories string
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT title, skills, job_category FROM job_postings WHERE id = ?`, "abc").Scan(&title, &skills, &categories))
	require.Equal(t, "Backend Engineer", title)
	require.Equal(t, `["Go","SQL"]`, skills)
	require.Equal(t, `[]`, categories)
}

func TestRecordStoreSavesLinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	link := crawler.LinkRecord{ID: "l1", RunID: "run-1", URL: "https://wuzzuf.net/jobs/p/l1", Source: "wuzzuf.net", ScrapedAt: time.Now()}
	require.NoError(t, store.SaveLink(ctx, link))
	require.NoError(t, store.SaveLink(ctx, link))

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_links`).Scan(&n))
	require.Equal(t, 1, n)

	require.Error(t, store.SaveLink(ctx, crawler.LinkRecord{}))
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	require.Error(t, err)
}
