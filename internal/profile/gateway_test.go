package profile_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/nodesync/internal/httpclient"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/profile"
)

func newGateway(opts ...profile.GatewayOption) *profile.HTTPGateway {
	return profile.NewHTTPGateway(httpclient.NewDefaultClient(5*time.Second), opts...)
}

func TestHTTPGateway_FetchProfiles_FollowsPagination(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			assert.Equal(t, "org", r.URL.Query().Get("schema"))
			_, _ = fmt.Fprint(w, `{"data":[
				{"profile_url":"https://a.example/p1","status":"posted","last_updated":10},
				{"profile_url":"https://a.example/p2","status":"deleted","last_updated":11}
			],"links":{"next":"/nodes?schema=org&page=2"}}`)
		case "2":
			_, _ = fmt.Fprint(w, `{"data":[{"profile_url":"https://b.example/p1","status":"posted","last_updated":12}],"links":{"next":null}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	profiles, err := newGateway().FetchProfiles(context.Background(), server.URL+"/nodes", "?schema=org")
	require.NoError(t, err)
	assert.Equal(t, []profile.RawProfile{
		{ProfileURL: "https://a.example/p1", Status: "posted", LastUpdated: 10},
		{ProfileURL: "https://a.example/p2", Status: profile.StatusDeleted, LastUpdated: 11},
		{ProfileURL: "https://b.example/p1", Status: "posted", LastUpdated: 12},
	}, profiles)
}

func TestHTTPGateway_FetchProfiles_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handler       http.HandlerFunc
		errorContains string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			errorContains: "HTTP 500",
		},
		{
			name: "missing data array",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, `{"items":[]}`)
			},
			errorContains: "missing data array",
		},
		{
			name: "pagination loop",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, `{"data":[],"links":{"next":"/nodes"}}`)
			},
			errorContains: "pagination loop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newGateway().FetchProfiles(context.Background(), server.URL+"/nodes", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestHTTPGateway_FetchProfiles_MaxPages(t *testing.T) {
	t.Parallel()

	var page atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"data":[],"links":{"next":"/nodes?page=%d"}}`, page.Add(1))
	}))
	defer server.Close()

	_, err := newGateway(profile.WithMaxPages(3)).FetchProfiles(context.Background(), server.URL+"/nodes", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 3 pages")
}

func TestHTTPGateway_ProcessProfile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/profiles/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{ "name": "Org",  "primary_url": "https://a.example/p1" }`)
	})
	mux.HandleFunc("/profiles/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/profiles/html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/profiles/array", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[1,2]`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gw := newGateway()
	ctx := context.Background()

	t.Run("available profile is compacted", func(t *testing.T) {
		t.Parallel()

		res, err := gw.ProcessProfile(ctx, server.URL+"/profiles/ok", server.URL)
		require.NoError(t, err)
		assert.True(t, res.IsAvailable)
		assert.Equal(t, node.StatusNew, res.Status)
		assert.JSONEq(t, `{"name":"Org","primary_url":"https://a.example/p1"}`, string(res.Content))
		assert.Equal(t, `{"name":"Org","primary_url":"https://a.example/p1"}`, string(res.Content))
	})

	t.Run("relative profile url resolves against index", func(t *testing.T) {
		t.Parallel()

		res, err := gw.ProcessProfile(ctx, "/profiles/ok", server.URL+"/nodes")
		require.NoError(t, err)
		assert.True(t, res.IsAvailable)
	})

	t.Run("http failure is reported as unavailable", func(t *testing.T) {
		t.Parallel()

		res, err := gw.ProcessProfile(ctx, server.URL+"/profiles/gone", server.URL)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Contains(t, res.UnavailableMessage, "HTTP 410")
		assert.Nil(t, res.Content)
	})

	t.Run("non json document is unavailable", func(t *testing.T) {
		t.Parallel()

		res, err := gw.ProcessProfile(ctx, server.URL+"/profiles/html", server.URL)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Contains(t, res.UnavailableMessage, "not valid JSON")
	})

	t.Run("non object document is unavailable", func(t *testing.T) {
		t.Parallel()

		res, err := gw.ProcessProfile(ctx, server.URL+"/profiles/array", server.URL)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Contains(t, res.UnavailableMessage, "not a JSON object")
	})

	t.Run("malformed url is a normalization error", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"", "ftp://a.example/p1", "http://", "relative/only"} {
			_, err := gw.ProcessProfile(ctx, bad, "not a url")
			require.ErrorIs(t, err, profile.ErrInvalidProfileURL, bad)
		}
	})

	t.Run("cancelled context is returned as error", func(t *testing.T) {
		t.Parallel()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := gw.ProcessProfile(cancelled, server.URL+"/profiles/ok", server.URL)
		require.ErrorIs(t, err, context.Canceled)
	})
}
