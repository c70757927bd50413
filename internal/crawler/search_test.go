package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filters SearchFilters
		want    string
	}{
		{
			name: "no filters",
			want: "https://wuzzuf.net/search/jobs/",
		},
		{
			name:    "keyword with spaces",
			filters: SearchFilters{Keyword: "go developer"},
			want:    "https://wuzzuf.net/search/jobs/?q=go%20developer",
		},
		{
			name: "all filters",
			filters: SearchFilters{
				Keyword:     "data",
				Location:    "Cairo",
				Category:    "IT/Software Development",
				CareerLevel: "Experienced",
				JobType:     "Full Time",
			},
			want: "https://wuzzuf.net/search/jobs/?q=data" +
				"&a0=Location&l0=0&l1=2&l2=4&filters[location][0]=Cairo" +
				"&filters[categories][0]=IT%2FSoftware%20Development" +
				"&filters[career_level][0]=Experienced" +
				"&filters[job_type][0]=Full%20Time",
		},
		{
			name:    "blank filters are skipped",
			filters: SearchFilters{Keyword: "  ", Location: "Giza"},
			want:    "https://wuzzuf.net/search/jobs/?a0=Location&l0=0&l1=2&l2=4&filters[location][0]=Giza",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildSearchURL("https://wuzzuf.net/", "/search/jobs/", tt.filters)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSeedRequests(t *testing.T) {
	t.Parallel()

	seeds := SeedRequests([]string{" https://a.example/1 ", "", "https://a.example/1", "https://a.example/2"}, "https://fallback.example")
	require.Len(t, seeds, 2)
	require.Equal(t, Listing("https://a.example/1", "https://a.example/1", 1), seeds[0])
	require.Equal(t, "https://a.example/2", seeds[1].URL)

	fallback := SeedRequests(nil, "https://fallback.example")
	require.Equal(t, []CrawlRequest{Listing("https://fallback.example", "https://fallback.example", 1)}, fallback)
}
