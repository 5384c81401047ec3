package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAuthority(t *testing.T) {
	t.Parallel()

	hosts := map[string]struct{}{"a.example": {}}

	tests := []struct {
		name       string
		primaryURL string
		profileURL string
		want       bool
	}{
		{
			name:       "no primary url keeps authority",
			primaryURL: "",
			profileURL: "https://b.example/p1",
			want:       true,
		},
		{
			name:       "unparseable primary url keeps authority",
			primaryURL: "://bad",
			profileURL: "https://b.example/p1",
			want:       true,
		},
		{
			name:       "self hosted profile is authoritative",
			primaryURL: "https://a.example/p1",
			profileURL: "https://a.example/profiles/p1",
			want:       true,
		},
		{
			name:       "host comparison ignores case and port",
			primaryURL: "https://A.Example:8443/p1",
			profileURL: "https://a.example/p1",
			want:       true,
		},
		{
			name:       "foreign claim on authoritative host loses authority",
			primaryURL: "https://a.example/p1",
			profileURL: "https://b.example/p1",
			want:       false,
		},
		{
			name:       "foreign claim on unclaimed host keeps authority",
			primaryURL: "https://c.example/p1",
			profileURL: "https://b.example/p1",
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckAuthority(hosts, tt.primaryURL, tt.profileURL))
		})
	}
}

func TestPrimaryURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://a.example/p1", PrimaryURL(json.RawMessage(`{"name":"x","primary_url":"https://a.example/p1"}`)))
	assert.Empty(t, PrimaryURL(json.RawMessage(`{"name":"x"}`)))
	assert.Empty(t, PrimaryURL(nil))
}

func TestHost(t *testing.T) {
	t.Parallel()

	host, err := Host("https://Profiles.Example.org:443/a")
	require.NoError(t, err)
	assert.Equal(t, "profiles.example.org", host)

	_, err = Host("/relative/path")
	require.ErrorIs(t, err, ErrInvalidProfileURL)
}
