package listing

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Identity is the de-duplication and upsert key for a listing: the
// source-scoped native id when the source provides one, otherwise the
// derived (city, slug) pair. Resolution is deterministic and total so
// repeated runs converge on the same keys.
type Identity struct {
	Source     Source
	ExternalID string
	City       string
	Slug       string
}

// Key returns the single-string identity used as the upsert conflict key.
func (id Identity) Key() string {
	if id.ExternalID != "" {
		return string(id.Source) + ":" + id.ExternalID
	}
	return "slug:" + strings.ToLower(strings.TrimSpace(id.City)) + "/" + id.Slug
}

// Resolve computes the identity for a normalized listing.
func Resolve(l *Listing) Identity {
	return Identity{
		Source:     l.Source,
		ExternalID: l.ExternalID,
		City:       l.City,
		Slug:       l.Slug,
	}
}

// externalIDPatterns match the numeric listing id embedded in source URLs,
// most specific first. Ids shorter than 4 or longer than 10 digits are
// treated as noise.
var externalIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`-d(\d+)-`),
	regexp.MustCompile(`[?&]d[A-Za-z]*=(\d+)`),
	regexp.MustCompile(`Location_Review-d(\d+)`),
	regexp.MustCompile(`[/-](\d{6,})[/-]`),
}

// ExternalIDFromURL extracts a source-native listing id from a URL.
// Returns "" when no plausible id is present.
func ExternalIDFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	for _, p := range externalIDPatterns {
		m := p.FindStringSubmatch(rawURL)
		if len(m) < 2 {
			continue
		}
		if n := len(m[1]); n >= 4 && n <= 10 {
			return m[1]
		}
	}
	return ""
}

// Suffix derives the short disambiguation suffix appended to slugs: the
// last 6 characters of the external id when known, else a 6-hex-digit hash
// of (city, name) so nameless re-fetches still collide onto one key.
func Suffix(externalID, city, name string) string {
	if externalID != "" {
		s := strings.ToLower(externalID)
		if len(s) > 6 {
			s = s[len(s)-6:]
		}
		return s
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return fmt.Sprintf("%06x", h.Sum32()&0xffffff)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
var dashRuns = regexp.MustCompile(`-+`)

// Slugify builds the canonical slug: lower-cased name with whitespace
// collapsed to single dashes, anything outside [a-z0-9-] stripped, and the
// identity suffix appended. A name that normalizes to nothing falls back
// to "listing-<suffix>".
func Slugify(name, suffix string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.Join(strings.Fields(base), "-")
	base = nonSlugChars.ReplaceAllString(base, "")
	base = dashRuns.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		return "listing-" + suffix
	}
	return base + "-" + suffix
}
