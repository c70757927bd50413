package links

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

const listingHTML = `<html><head><title>Go Jobs in Egypt</title></head><body>
<div class="css-1gatmva">
  <h2 class="css-m604qf"><a href="/jobs/p/abc-Go-Developer-Cairo-Egypt?o=1&amp;l=sp">Go Developer</a></h2>
  <a href="/jobs/careers/Acme-Egypt-123">Acme</a>
</div>
<div><h2><a href="https://wuzzuf.net/jobs/p/def-Data-Engineer?o=2#apply">Data Engineer</a></h2></div>
<a href="/jobs/p/abc-Go-Developer-Cairo-Egypt">same job again</a>
<a href="#top">top</a>
<a href="javascript:void(0)">noop</a>
<a href="/internship/p/xyz">elsewhere</a>
</body></html>`

func newPage(t *testing.T, rawURL, body string) *crawler.Page {
	t.Helper()
	page, err := crawler.NewPage(rawURL, []byte(body))
	require.NoError(t, err)
	return page
}

func TestFindJobLinks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	page := newPage(t, "https://wuzzuf.net/search/jobs/?q=go", listingHTML)

	got := f.FindJobLinks(page, nil)
	require.Equal(t, 2, got.Raw)
	require.Equal(t, []string{
		"https://wuzzuf.net/jobs/p/abc-Go-Developer-Cairo-Egypt",
		"https://wuzzuf.net/jobs/p/def-Data-Engineer",
	}, got.Fresh)
}

func TestFindJobLinksSkipsSeen(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	page := newPage(t, "https://wuzzuf.net/search/jobs/?q=go", listingHTML)
	seen := func(u string) bool { return u == "https://wuzzuf.net/jobs/p/def-Data-Engineer" }

	got := f.FindJobLinks(page, seen)
	require.Equal(t, 2, got.Raw)
	require.Equal(t, []string{"https://wuzzuf.net/jobs/p/abc-Go-Developer-Cairo-Egypt"}, got.Fresh)
}

func TestFindJobLinksEmptyPage(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	page := newPage(t, "https://wuzzuf.net/search/jobs/?q=none", `<html><body><p>No jobs found</p></body></html>`)

	got := f.FindJobLinks(page, nil)
	require.Zero(t, got.Raw)
	require.Empty(t, got.Fresh)
}

func TestNextPageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pageURL string
		body    string
		page    int
		want    string
	}{
		{
			name:    "aria label control",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go",
			body:    `<a aria-label="Next" href="/search/jobs/?q=go&amp;start=1">›</a>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=1",
		},
		{
			name:    "rel next",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go",
			body:    `<a rel="next" href="?q=go&start=2">more</a>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=2",
		},
		{
			name:    "arrow text",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go",
			body:    `<ul><li><a href="/search/jobs/?q=go&start=3"> » </a></li></ul>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=3",
		},
		{
			name:    "constructed from first page",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go",
			body:    `<p>no pager</p>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=15",
		},
		{
			name:    "constructed increments start",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go&start=15",
			body:    `<p>no pager</p>`,
			page:    2,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=30",
		},
		{
			name:    "constructed without query",
			pageURL: "https://wuzzuf.net/search/jobs/",
			body:    `<p>no pager</p>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?start=15",
		},
		{
			name:    "control pointing at current page is ignored",
			pageURL: "https://wuzzuf.net/search/jobs/?q=go",
			body:    `<a aria-label="Next" href="/search/jobs/?q=go#top">next</a>`,
			page:    1,
			want:    "https://wuzzuf.net/search/jobs/?q=go&start=15",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := New(Config{})
			page := newPage(t, tt.pageURL, "<html><body>"+tt.body+"</body></html>")
			got, ok := f.NextPageURL(page, tt.page)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
