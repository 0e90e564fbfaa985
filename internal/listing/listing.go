// Package listing defines the canonical listing record and the three pure
// transforms every ingest path goes through: field normalization, identity
// resolution, and field-level merge.
package listing

import (
	"encoding/json"
	"time"
)

// Source tags where a raw record originated.
type Source string

const (
	SourceScrape      Source = "scrape"
	SourcePartnerAPI  Source = "partner_api"
	SourceLLMEnriched Source = "llm_enriched"
)

// FetchStatus records the outcome of the fetch that produced a record.
type FetchStatus string

const (
	FetchSuccess  FetchStatus = "success"
	FetchNotFound FetchStatus = "not_found"
	FetchError    FetchStatus = "error"
)

// MaxPhotoURLs bounds the photo list to keep row payloads small.
const MaxPhotoURLs = 50

// RawRecord is one source record before normalization: a source tag plus an
// arbitrary key-value payload. Any field may be absent, null, mistyped, or
// empty; the normalizer owes the caller a complete canonical record anyway.
type RawRecord struct {
	Source Source
	Fields map[string]any
}

// Listing is the canonical record persisted to the listings table.
// Nullable scalars are pointers; collection fields are never nil after
// normalization, only empty.
type Listing struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Slug       string `json:"slug"`
	Source     Source `json:"source"`

	Name      string   `json:"name"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Region    string   `json:"region"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Category     string `json:"category"`
	LocationType string `json:"location_type"`

	Rating          *float64 `json:"rating"`
	ReviewCount     *int     `json:"review_count"`
	VisibilityScore float64  `json:"visibility_score"`
	Verified        bool     `json:"verified"`

	Description      *string           `json:"description"`
	Amenities        []string          `json:"amenities"`
	Highlights       []string          `json:"highlights"`
	HoursOfOperation map[string]string `json:"hours_of_operation"`
	PhotoURLs        []string          `json:"photo_urls"`
	PriceLevel       *int              `json:"price_level"`
	WebURL           *string           `json:"web_url"`

	FetchStatus       FetchStatus `json:"fetch_status"`
	FetchErrorMessage *string     `json:"fetch_error_message"`
	LastVerifiedAt    time.Time   `json:"last_verified_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// Raw is the originating source payload, kept for audit only.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// HasImage reports whether the listing carries at least one photo.
func (l *Listing) HasImage() bool {
	return len(l.PhotoURLs) > 0
}
