package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/stacklok/nodesync/internal/httpclient"
	"github.com/stacklok/nodesync/internal/node"
)

// DefaultMaxPages bounds pagination of a single listing.
const DefaultMaxPages = 1000

// HTTPGateway is a Gateway backed by an index that serves JSON over HTTP.
//
// Listing pages are expected to look like
//
//	{"data": [{"profile_url": "...", "status": "...", "last_updated": 0}], "links": {"next": "..."}}
type HTTPGateway struct {
	client   httpclient.Client
	maxPages int
}

var _ Gateway = (*HTTPGateway)(nil)

// GatewayOption configures an HTTPGateway.
type GatewayOption func(*HTTPGateway)

// WithMaxPages overrides DefaultMaxPages.
func WithMaxPages(n int) GatewayOption {
	return func(g *HTTPGateway) {
		if n > 0 {
			g.maxPages = n
		}
	}
}

// NewHTTPGateway creates a gateway that issues requests through client.
func NewHTTPGateway(client httpclient.Client, opts ...GatewayOption) *HTTPGateway {
	g := &HTTPGateway{client: client, maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchProfiles implements Gateway.
func (g *HTTPGateway) FetchProfiles(ctx context.Context, indexURL, queryURL string) ([]RawProfile, error) {
	next := JoinURL(indexURL, queryURL)
	seen := make(map[string]struct{})
	var profiles []RawProfile

	for pages := 0; next != ""; pages++ {
		if pages >= g.maxPages {
			return nil, fmt.Errorf("index %s returned more than %d pages", indexURL, g.maxPages)
		}
		if _, ok := seen[next]; ok {
			return nil, fmt.Errorf("pagination loop detected at %s", next)
		}
		seen[next] = struct{}{}

		body, err := g.client.Get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch profiles from %s: %w", next, err)
		}

		page := gjson.ParseBytes(body)
		data := page.Get("data")
		if !gjson.ValidBytes(body) || !data.IsArray() {
			return nil, fmt.Errorf("unexpected index response from %s: missing data array", next)
		}

		for _, item := range data.Array() {
			profiles = append(profiles, RawProfile{
				ProfileURL:  item.Get("profile_url").String(),
				Status:      item.Get("status").String(),
				LastUpdated: item.Get("last_updated").Int(),
			})
		}

		next = resolveLink(next, page.Get("links.next").String())
	}

	slog.Debug("Fetched profiles", "index", indexURL, "count", len(profiles))
	return profiles, nil
}

// ProcessProfile implements Gateway.
func (g *HTTPGateway) ProcessProfile(ctx context.Context, profileURL, indexURL string) (*Result, error) {
	target, err := ResolveProfileURL(profileURL, indexURL)
	if err != nil {
		return nil, err
	}

	body, err := g.client.Get(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return unavailable(err.Error()), nil
	}

	content, err := normalize(body)
	if err != nil {
		return unavailable(err.Error()), nil
	}

	return &Result{
		Content:     content,
		Status:      node.StatusNew,
		IsAvailable: true,
	}, nil
}

// ResolveProfileURL resolves profileURL against indexURL and checks that the
// result is an absolute http(s) URL.
func ResolveProfileURL(profileURL, indexURL string) (string, error) {
	if strings.TrimSpace(profileURL) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidProfileURL)
	}
	ref, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidProfileURL, profileURL)
	}
	if !ref.IsAbs() {
		base, err := url.Parse(indexURL)
		if err != nil || !base.IsAbs() {
			return "", fmt.Errorf("%w: %s is relative and index URL %q is not absolute",
				ErrInvalidProfileURL, profileURL, indexURL)
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme in %s", ErrInvalidProfileURL, profileURL)
	}
	if ref.Hostname() == "" {
		return "", fmt.Errorf("%w: %s has no host", ErrInvalidProfileURL, profileURL)
	}
	return ref.String(), nil
}

// normalize validates a profile document and returns it compacted.
func normalize(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("profile is not valid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, errors.New("profile is not a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, fmt.Errorf("failed to normalize profile: %w", err)
	}
	return buf.Bytes(), nil
}

func unavailable(message string) *Result {
	return &Result{
		Status:             node.StatusNew,
		IsAvailable:        false,
		UnavailableMessage: message,
	}
}

func resolveLink(current, next string) string {
	if next == "" {
		return ""
	}
	ref, err := url.Parse(next)
	if err != nil {
		return ""
	}
	base, err := url.Parse(current)
	if err != nil {
		return next
	}
	return base.ResolveReference(ref).String()
}
