package listing

import "math"

// MergeMode selects the field-level conflict rule.
type MergeMode int

const (
	// FillEmpty sets a field only when the stored value is null or empty;
	// status fields refresh unconditionally. This is the default: a later,
	// lower-quality source can never downgrade previously good data.
	FillEmpty MergeMode = iota
	// Overwrite lets any non-empty incoming value replace the stored one.
	// A non-null stored value is still never replaced by null.
	Overwrite
)

// Merge applies incoming on top of stored and returns the merged record.
// Both inputs are left untouched. The operation is idempotent and safe to
// apply repeatedly in any order: no field ever moves from non-null to null,
// and under FillEmpty an opinion field set once stays set.
func Merge(stored, incoming Listing, mode MergeMode) Listing {
	out := stored

	// Identity fields fill in when missing; they never change once set.
	if out.ExternalID == "" {
		out.ExternalID = incoming.ExternalID
	}
	if out.Slug == "" {
		out.Slug = incoming.Slug
	}
	if out.Source == "" {
		out.Source = incoming.Source
	}

	out.Name = mergeString(out.Name, incoming.Name, mode)
	out.City = mergeString(out.City, incoming.City, mode)
	out.Country = mergeString(out.Country, incoming.Country, mode)
	out.Region = mergeString(out.Region, incoming.Region, mode)
	out.Address = mergeStringPtr(out.Address, incoming.Address, mode)
	out.Latitude = mergeFloatPtr(out.Latitude, incoming.Latitude, mode)
	out.Longitude = mergeFloatPtr(out.Longitude, incoming.Longitude, mode)
	out.Category = mergeString(out.Category, incoming.Category, mode)
	out.LocationType = mergeString(out.LocationType, incoming.LocationType, mode)

	// Opinion fields: filled-once under FillEmpty.
	out.Rating = mergeFloatPtr(out.Rating, incoming.Rating, mode)
	out.ReviewCount = mergeIntPtr(out.ReviewCount, incoming.ReviewCount, mode)
	out.Description = mergeStringPtr(out.Description, incoming.Description, mode)
	out.Amenities = mergeSlice(out.Amenities, incoming.Amenities, mode)
	out.Highlights = mergeSlice(out.Highlights, incoming.Highlights, mode)
	out.HoursOfOperation = mergeMap(out.HoursOfOperation, incoming.HoursOfOperation, mode)
	out.PhotoURLs = mergeSlice(out.PhotoURLs, incoming.PhotoURLs, mode)
	out.PriceLevel = mergeIntPtr(out.PriceLevel, incoming.PriceLevel, mode)
	out.Verified = out.Verified || incoming.Verified

	// Status and provenance fields always reflect the latest fetch.
	out.FetchStatus = incoming.FetchStatus
	out.FetchErrorMessage = incoming.FetchErrorMessage
	out.LastVerifiedAt = incoming.LastVerifiedAt
	if incoming.WebURL != nil {
		out.WebURL = incoming.WebURL
	}
	if incoming.Raw != nil {
		out.Raw = incoming.Raw
	}

	// created_at is set once; updated_at only moves forward.
	if out.CreatedAt.IsZero() {
		out.CreatedAt = incoming.CreatedAt
	}
	if incoming.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = incoming.UpdatedAt
	}
	if out.ID == "" {
		out.ID = incoming.ID
	}

	out.VisibilityScore = Score(&out)
	return out
}

// Score recomputes the 0–100 visibility projection from the record itself:
// up to 40 points from rating, up to 40 from review volume, 10 for having
// an image, 10 for being verified. Derived, never merged.
func Score(l *Listing) float64 {
	s := 0.0
	if l.Rating != nil {
		s += math.Min(40, 40*(*l.Rating)/5)
	}
	if l.ReviewCount != nil && *l.ReviewCount > 0 {
		s += math.Min(40, 40*float64(*l.ReviewCount)/1000)
	}
	if l.HasImage() {
		s += 10
	}
	if l.Verified {
		s += 10
	}
	s = math.Max(0, math.Min(100, s))
	return math.Round(s*100) / 100
}

func mergeString(stored, incoming string, mode MergeMode) string {
	if incoming == "" {
		return stored
	}
	if stored == "" || mode == Overwrite {
		return incoming
	}
	return stored
}

func mergeStringPtr(stored, incoming *string, mode MergeMode) *string {
	if incoming == nil {
		return stored
	}
	if stored == nil || mode == Overwrite {
		return incoming
	}
	return stored
}

func mergeFloatPtr(stored, incoming *float64, mode MergeMode) *float64 {
	if incoming == nil {
		return stored
	}
	if stored == nil || mode == Overwrite {
		return incoming
	}
	return stored
}

func mergeIntPtr(stored, incoming *int, mode MergeMode) *int {
	if incoming == nil {
		return stored
	}
	if stored == nil || mode == Overwrite {
		return incoming
	}
	return stored
}

func mergeSlice(stored, incoming []string, mode MergeMode) []string {
	if len(incoming) == 0 {
		return stored
	}
	if len(stored) == 0 || mode == Overwrite {
		return incoming
	}
	return stored
}

func mergeMap(stored, incoming map[string]string, mode MergeMode) map[string]string {
	if len(incoming) == 0 {
		return stored
	}
	if len(stored) == 0 || mode == Overwrite {
		return incoming
	}
	return stored
}
