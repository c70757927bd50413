package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
	pubmemory "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/publisher/memory"
	storememory "github.com/JakeFAU/wuzzuf-jobs-crawler/internal/storage/memory"
)

var (
	testJob = crawler.JobRecord{
		ID:        "job-1",
		RunID:     "run-1",
		Title:     "Data Engineer",
		Company:   "Acme",
		Salary:    crawler.SalaryNotDisclosed,
		SourceURL: "https://wuzzuf.net/jobs/p/job-1",
		ScrapedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	testLink = crawler.LinkRecord{
		ID:        "link-1",
		RunID:     "run-1",
		URL:       "https://wuzzuf.net/jobs/p/link-1",
		Source:    "wuzzuf.net",
		ScrapedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
)

func TestJSONLAppendsLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "dataset.jsonl")
	s, err := NewJSONL(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, testJob))
	require.NoError(t, s.Write(ctx, testLink))
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	require.Error(t, s.Write(ctx, testJob))

	// Reopening appends instead of truncating.
	s, err = NewJSONL(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, testJob))
	require.NoError(t, s.Close(ctx))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj))
		lines = append(lines, obj)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)
	assert.Equal(t, "Data Engineer", lines[0]["title"])
	assert.Equal(t, "Not disclosed", lines[0]["salary"])
	assert.Equal(t, "https://wuzzuf.net/jobs/p/link-1", lines[1]["url"])
	assert.Equal(t, "wuzzuf.net", lines[1]["source"])
}

func TestBlobWritesPerRecordObjects(t *testing.T) {
	t.Parallel()

	store := storememory.NewBlobStore()
	s, err := NewBlob(store, "wuzzuf", "run-1")
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), testJob))
	data, contentType, ok := store.Object("wuzzuf/run-1/job-1.json")
	require.True(t, ok)
	assert.Equal(t, "application/json", contentType)

	var got crawler.JobRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, testJob.Title, got.Title)

	require.Error(t, s.Write(context.Background(), crawler.JobRecord{}))
	_, err = NewBlob(nil, "", "run")
	require.Error(t, err)
	_, err = NewBlob(store, "", "")
	require.Error(t, err)
}

func TestStoreRoutesByKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	records := storememory.NewRecordStore()
	s, err := NewStore(records)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, testJob))
	require.NoError(t, s.Write(ctx, &testLink))
	require.Len(t, records.Jobs(), 1)
	require.Len(t, records.Links(), 1)
	require.Error(t, s.Write(ctx, otherRecord{}))
	require.NoError(t, s.Close(ctx))
}

func TestPublishRoutesTopics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pub := pubmemory.New()
	s, err := NewPublish(pub, Topics{Jobs: "jobs"})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, testJob))
	require.NoError(t, s.Write(ctx, testLink))
	require.Len(t, pub.Topic("jobs"), 2)

	s, err = NewPublish(pub, Topics{Jobs: "jobs", Links: "links"})
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, testLink))
	require.Len(t, pub.Topic("links"), 1)
	require.NoError(t, s.Close(ctx))

	_, err = NewPublish(pub, Topics{})
	require.Error(t, err)
}

func TestFanoutWritesEverySinkAndCombinesErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first := NewMemory()
	second := NewMemory()
	failing := &failingSink{err: errors.New("disk full")}
	f := NewFanout(first, nil, failing, second)
	require.Equal(t, 3, f.Len())

	err := f.Write(ctx, testJob)
	require.ErrorContains(t, err, "disk full")
	require.Len(t, first.Records(), 1)
	require.Len(t, second.Jobs(), 1)

	require.ErrorContains(t, f.Close(ctx), "disk full")
	require.True(t, first.Closed())
	require.True(t, second.Closed())
}

type otherRecord struct{}

func (otherRecord) RecordID() string   { return "x" }
func (otherRecord) RecordKind() string { return "other" }

type failingSink struct{ err error }

func (f *failingSink) Write(context.Context, crawler.Record) error { return f.err }
func (f *failingSink) Close(context.Context) error                 { return f.err }
