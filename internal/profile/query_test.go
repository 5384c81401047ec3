package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSinceQuery(t *testing.T) {
	t.Parallel()

	since := int64(1700000000)

	tests := []struct {
		name     string
		template string
		since    *int64
		want     string
	}{
		{
			name:     "posted filter in the middle",
			template: "?schema=org&status=posted&tags=x",
			since:    &since,
			want:     "?schema=org&tags=x&last_updated=1700000000",
		},
		{
			name:     "posted filter at the end",
			template: "?schema=org&status=posted",
			since:    &since,
			want:     "?schema=org&last_updated=1700000000",
		},
		{
			name:     "posted filter first",
			template: "?status=posted&schema=org",
			since:    &since,
			want:     "?schema=org&last_updated=1700000000",
		},
		{
			name:     "only posted filter",
			template: "?status=posted",
			since:    &since,
			want:     "?last_updated=1700000000",
		},
		{
			name:     "only posted filter without timestamp",
			template: "?status=posted",
			want:     "",
		},
		{
			name:     "no timestamp leaves other filters",
			template: "/v2/nodes?schema=org&status=posted",
			want:     "/v2/nodes?schema=org",
		},
		{
			name:     "other status values are kept",
			template: "?status=draft",
			since:    &since,
			want:     "?status=draft&last_updated=1700000000",
		},
		{
			name:     "template without query string",
			template: "/v2/nodes",
			since:    &since,
			want:     "/v2/nodes?last_updated=1700000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildSinceQuery(tt.template, tt.since))
		})
	}
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		index string
		query string
		want  string
	}{
		{name: "empty query", index: "https://idx.example/v2", query: "", want: "https://idx.example/v2"},
		{name: "query string", index: "https://idx.example/v2/nodes", query: "?schema=org", want: "https://idx.example/v2/nodes?schema=org"},
		{name: "query string on index with params", index: "https://idx.example/nodes?a=1", query: "?b=2", want: "https://idx.example/nodes?a=1&b=2"},
		{name: "relative path", index: "https://idx.example/v2/", query: "/nodes?x=1", want: "https://idx.example/v2/nodes?x=1"},
		{name: "absolute query", index: "https://idx.example", query: "https://other.example/nodes", want: "https://other.example/nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, JoinURL(tt.index, tt.query))
		})
	}
}
