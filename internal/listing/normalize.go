package listing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lakbayph/listingsync/internal/geo"
)

// Field aliases: the three sources disagree on key names for the same
// concept, so each canonical field is looked up under every spelling the
// corpus produces, first match wins.
var (
	nameKeys        = []string{"name", "title", "official_name"}
	cityKeys        = []string{"city", "location"}
	countryKeys     = []string{"country"}
	addressKeys     = []string{"address", "address_string", "street_address"}
	latKeys         = []string{"latitude", "lat"}
	lonKeys         = []string{"longitude", "lon", "lng"}
	categoryKeys    = []string{"category", "subcategory"}
	locTypeKeys     = []string{"location_type", "type"}
	ratingKeys      = []string{"rating"}
	reviewKeys      = []string{"review_count", "num_reviews", "reviews"}
	descriptionKeys = []string{"description", "about"}
	amenitiesKeys   = []string{"amenities"}
	highlightsKeys  = []string{"highlights"}
	hoursKeys       = []string{"hours_of_operation", "hours"}
	photosKeys      = []string{"photo_urls", "photos", "image_urls"}
	imageKeys       = []string{"image_url", "photo_url", "primary_image_url"}
	priceKeys       = []string{"price_level", "price_range"}
	urlKeys         = []string{"web_url", "tripadvisor_url", "url", "website"}
	externalIDKeys  = []string{"external_id", "tripadvisor_id", "location_id"}
)

// Normalize maps one raw source record onto the canonical listing shape.
// It is a pure transform and total: every canonical field comes out with a
// typed value or an explicit null, malformed individual fields degrade to
// null rather than failing the record, and collection fields are always
// non-nil.
func Normalize(raw RawRecord, now time.Time) Listing {
	f := raw.Fields
	if f == nil {
		f = map[string]any{}
	}

	name := cleanText(firstString(f, nameKeys))
	city := cleanText(firstString(f, cityKeys))

	externalID := firstString(f, externalIDKeys)
	webURL := firstString(f, urlKeys)
	if externalID == "" {
		externalID = ExternalIDFromURL(webURL)
	}
	suffix := Suffix(externalID, city, name)

	country := cleanText(firstString(f, countryKeys))
	if country == "" {
		country = "Philippines"
	}

	category := cleanText(firstString(f, categoryKeys))
	locType := cleanText(firstString(f, locTypeKeys))
	if locType == "" {
		locType = locationTypeFromName(name)
	}
	if category == "" {
		category = locType
	}

	l := Listing{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Slug:       Slugify(name, suffix),
		Source:     raw.Source,

		Name:      name,
		City:      city,
		Country:   country,
		Region:    geo.RegionFor(city),
		Address:   optString(cleanText(firstString(f, addressKeys))),
		Latitude:  boundedFloat(firstFloat(f, latKeys), -90, 90),
		Longitude: boundedFloat(firstFloat(f, lonKeys), -180, 180),

		Category:     category,
		LocationType: locType,

		Rating:      boundedFloat(firstFloat(f, ratingKeys), 0, 5),
		ReviewCount: nonNegativeInt(firstInt(f, reviewKeys)),
		Verified:    firstBool(f, "verified"),

		Description:      optString(cleanText(firstString(f, descriptionKeys))),
		Amenities:        firstStringSlice(f, amenitiesKeys),
		Highlights:       firstStringSlice(f, highlightsKeys),
		HoursOfOperation: firstStringMap(f, hoursKeys),
		PhotoURLs:        photoURLs(f),
		PriceLevel:       priceLevel(f),
		WebURL:           optString(webURL),

		FetchStatus:    fetchStatus(f),
		LastVerifiedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if msg := firstString(f, []string{"fetch_error_message"}); msg != "" {
		l.FetchErrorMessage = &msg
	}

	// Raw payload is audit-only; a marshal failure just drops it.
	if b, err := json.Marshal(f); err == nil {
		l.Raw = b
	}

	l.VisibilityScore = Score(&l)
	return l
}

// cleanText trims and collapses internal whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstString(f map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				return strings.TrimSpace(t)
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case int64:
			return strconv.FormatInt(t, 10)
		}
	}
	return ""
}

func firstFloat(f map[string]any, keys []string) *float64 {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if fv, ok := toFloat(v); ok {
			return &fv
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		fv, err := t.Float64()
		return fv, err == nil
	case string:
		fv, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return fv, err == nil
	}
	return 0, false
}

func firstInt(f map[string]any, keys []string) *int {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if fv, ok := toFloat(v); ok {
			n := int(fv)
			return &n
		}
	}
	return nil
}

func firstBool(f map[string]any, key string) bool {
	switch t := f[key].(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

func boundedFloat(v *float64, lo, hi float64) *float64 {
	if v == nil || *v < lo || *v > hi {
		return nil
	}
	return v
}

func nonNegativeInt(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func firstStringSlice(f map[string]any, keys []string) []string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if out := toStringSlice(v); len(out) > 0 {
			return out
		}
	}
	return []string{}
}

func toStringSlice(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func firstStringMap(f map[string]any, keys []string) map[string]string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case map[string]string:
			if len(t) > 0 {
				return t
			}
		case map[string]any:
			out := make(map[string]string, len(t))
			for mk, mv := range t {
				if s, ok := mv.(string); ok && strings.TrimSpace(s) != "" {
					out[mk] = strings.TrimSpace(s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return map[string]string{}
}

// photoURLs merges the list-valued photo fields with the single image
// fields, dedupes preserving order, and caps the result.
func photoURLs(f map[string]any) []string {
	urls := firstStringSlice(f, photosKeys)
	if lead := firstString(f, imageKeys); lead != "" {
		urls = append([]string{lead}, urls...)
	}

	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !strings.HasPrefix(u, "http") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == MaxPhotoURLs {
			break
		}
	}
	return out
}

// priceLevel accepts either a numeric 1–4 level or a "$".."$$$$" range
// string; anything else is null.
func priceLevel(f map[string]any) *int {
	for _, k := range priceKeys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if n := len(s); n >= 1 && n <= 4 && strings.Count(s, "$") == n {
				return &n
			}
			continue
		}
		if fv, ok := toFloat(v); ok {
			n := int(fv)
			if n >= 1 && n <= 4 {
				return &n
			}
		}
	}
	return nil
}

func fetchStatus(f map[string]any) FetchStatus {
	switch FetchStatus(firstString(f, []string{"fetch_status"})) {
	case FetchNotFound:
		return FetchNotFound
	case FetchError:
		return FetchError
	default:
		return FetchSuccess
	}
}

// locationTypeFromName is the fallback classification used when the source
// carries no type of its own.
func locationTypeFromName(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "restaurant"), strings.Contains(n, "cafe"), strings.Contains(n, "bar"):
		return "Restaurant"
	case strings.Contains(n, "hotel"), strings.Contains(n, "resort"), strings.Contains(n, "inn"):
		return "Hotel"
	default:
		return "Attraction"
	}
}
