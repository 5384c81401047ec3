// Package profile retrieves profile records from an external index, normalizes
// individual profiles and decides which hosts may claim a profile.
package profile

import (
	"context"
	"encoding/json"
	"errors"
)

// StatusDeleted is the index-side status of a withdrawn profile.
const StatusDeleted = "deleted"

// ErrInvalidProfileURL is returned when a profile URL cannot be resolved to an
// http(s) location.
var ErrInvalidProfileURL = errors.New("invalid profile URL")

// RawProfile is one record of the index listing.
type RawProfile struct {
	ProfileURL  string `json:"profile_url"`
	Status      string `json:"status"`
	LastUpdated int64  `json:"last_updated"`
}

// Result is the outcome of normalizing one profile.
type Result struct {
	// Content is the normalized document. It is nil when the profile could not be retrieved.
	Content            json.RawMessage
	Status             string
	IsAvailable        bool
	UnavailableMessage string
}

// Gateway fetches profile data from an index.
//
//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks -source=types.go Gateway
type Gateway interface {
	// FetchProfiles lists the profiles returned by the index for queryURL,
	// following pagination links until exhausted.
	FetchProfiles(ctx context.Context, indexURL, queryURL string) ([]RawProfile, error)

	// ProcessProfile retrieves and normalizes one profile. Unreachable or
	// malformed documents are reported through Result.IsAvailable; an error is
	// returned only for a profile URL that cannot be resolved (ErrInvalidProfileURL)
	// or a cancelled context.
	ProcessProfile(ctx context.Context, profileURL, indexURL string) (*Result, error)
}
