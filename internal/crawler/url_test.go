package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		base    string
		want    string
		wantErr bool
	}{
		{name: "relative with query and fragment", raw: "/jobs/p/123?utm=x#frag", base: "https://site.example", want: "https://site.example/jobs/p/123"},
		{name: "absolute", raw: "https://WUZZUF.net:443/jobs/p/abc", base: "https://wuzzuf.net", want: "https://wuzzuf.net/jobs/p/abc"},
		{name: "protocol relative", raw: "//images.wuzzuf-data.net/logo.png?v=2", base: "https://wuzzuf.net", want: "https://images.wuzzuf-data.net/logo.png"},
		{name: "encoded ampersand", raw: "/jobs/p/1?a=1&amp;b=2", base: "https://wuzzuf.net", want: "https://wuzzuf.net/jobs/p/1"},
		{name: "data uri", raw: "data:image/png;base64,AAAA", base: "https://wuzzuf.net", wantErr: true},
		{name: "javascript", raw: "javascript:void(0)", base: "https://wuzzuf.net", wantErr: true},
		{name: "empty", raw: "  ", base: "https://wuzzuf.net", wantErr: true},
		{name: "unparseable", raw: "http://[::1", base: "https://wuzzuf.net", wantErr: true},
		{name: "ftp scheme", raw: "ftp://wuzzuf.net/file", base: "https://wuzzuf.net", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tt.raw, tt.base)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURLKeepsQuery(t *testing.T) {
	t.Parallel()

	u, err := ResolveURL("/search/jobs/?q=go&amp;start=15#top", "https://wuzzuf.net/search/jobs/?q=go")
	require.NoError(t, err)
	require.Equal(t, "https://wuzzuf.net/search/jobs/?q=go&start=15", u.String())
}
