package profile

import (
	"fmt"
	"regexp"
	"strings"
)

var postedFilter = regexp.MustCompile(`([?&])status=posted(&|$)`)

// BuildSinceQuery turns a cluster query template into an incremental query.
// The status=posted filter is removed so that withdrawn profiles are listed,
// and last_updated=<since> is appended when since is set.
func BuildSinceQuery(template string, since *int64) string {
	q := postedFilter.ReplaceAllString(template, "$1")
	q = strings.TrimRight(q, "&")

	if since == nil {
		return strings.TrimSuffix(q, "?")
	}

	param := fmt.Sprintf("last_updated=%d", *since)
	switch {
	case strings.HasSuffix(q, "?"):
		return q + param
	case strings.Contains(q, "?"):
		return q + "&" + param
	default:
		return q + "?" + param
	}
}

// JoinURL combines an index URL with a query template. Absolute templates are
// used as is and templates starting with "?" are appended verbatim.
func JoinURL(indexURL, query string) string {
	switch {
	case query == "":
		return indexURL
	case strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://"):
		return query
	case strings.HasPrefix(query, "?"):
		if strings.Contains(indexURL, "?") {
			return indexURL + "&" + strings.TrimPrefix(query, "?")
		}
		return indexURL + query
	default:
		return strings.TrimRight(indexURL, "/") + "/" + strings.TrimLeft(query, "/")
	}
}
