package profile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// PrimaryURL returns the primary_url declared by a profile document, or "".
func PrimaryURL(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	return gjson.GetBytes(doc, "primary_url").String()
}

// Host returns the lower-cased hostname of rawURL.
func Host(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidProfileURL, rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: %s has no host", ErrInvalidProfileURL, rawURL)
	}
	return host, nil
}

// CheckAuthority decides whether the profile at profileURL may claim the
// identity named by primaryURL.
//
// Without a usable primaryURL the profile keeps authority. A profile hosted on
// its primary host is always authoritative. Otherwise it loses authority only
// when the primary host is already claimed by a self-authoritative profile.
func CheckAuthority(hosts map[string]struct{}, primaryURL, profileURL string) bool {
	if primaryURL == "" {
		return true
	}
	primaryHost, err := Host(primaryURL)
	if err != nil {
		return true
	}
	profileHost, err := Host(profileURL)
	if err != nil {
		return true
	}
	if primaryHost == profileHost {
		return true
	}
	_, claimed := hosts[primaryHost]
	return !claimed
}
