package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakbayph/listingsync/internal/listing"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for listing records.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

const listingColumns = `id, identity_key, external_id, slug, source,
	name, city, country, region, address, latitude, longitude,
	category, location_type, rating, review_count, visibility_score, verified,
	description, amenities, highlights, hours_of_operation, photo_urls, price_level, web_url,
	fetch_status, fetch_error_message, last_verified_at, created_at, updated_at, raw`

const listingColumnCount = 31

// UpsertChunk writes a batch of listings in a single multi-row INSERT.
// On identity_key conflict the stored row and the incoming row are merged
// inside the statement, so concurrent runs against the same row converge
// instead of clobbering each other. The merge rule mirrors listing.Merge:
// fill-don't-clobber by default, incoming-wins under Overwrite, and status
// columns always take the incoming values. visibility_score is recomputed
// from the merged columns.
func (r *Repository) UpsertChunk(ctx context.Context, records []listing.Listing, mode listing.MergeMode) error {
	if len(records) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*listingColumnCount)
	for i, l := range records {
		row, err := insertArgs(l)
		if err != nil {
			return fmt.Errorf("encoding listing %s: %w", l.Name, err)
		}
		ph := make([]string, listingColumnCount)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*listingColumnCount+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args, row...)
	}

	q := fmt.Sprintf(`
		INSERT INTO listings (%s)
		VALUES %s
		ON CONFLICT (identity_key) DO UPDATE SET
		%s
	`, listingColumns, strings.Join(placeholders, ", "), mergeSetClause(mode))

	if _, err := r.q.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("upserting %d listings: %w", len(records), err)
	}

	return nil
}

// GetByKey retrieves a listing by its identity key.
// Returns nil, nil when no listing matches.
func (r *Repository) GetByKey(ctx context.Context, key string) (*listing.Listing, error) {
	q := fmt.Sprintf(`SELECT %s FROM listings WHERE identity_key = $1`, listingColumns)

	l, err := scanListing(r.q.QueryRow(ctx, q, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying listing %s: %w", key, err)
	}
	return l, nil
}

// GetBySlug retrieves a listing by its city and public slug.
// Returns nil, nil when no listing matches.
func (r *Repository) GetBySlug(ctx context.Context, city, slug string) (*listing.Listing, error) {
	q := fmt.Sprintf(`SELECT %s FROM listings WHERE LOWER(city) = LOWER($1) AND slug = $2`, listingColumns)

	l, err := scanListing(r.q.QueryRow(ctx, q, city, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying listing %s/%s: %w", city, slug, err)
	}
	return l, nil
}

// SelectPage returns a stable page of listings ordered by creation time.
// Used by the enrichment and backup passes to walk the whole table.
func (r *Repository) SelectPage(ctx context.Context, offset, limit int) ([]listing.Listing, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM listings
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, listingColumns)

	rows, err := r.q.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("querying listings page at offset %d: %w", offset, err)
	}
	return collectListings(rows)
}

// ListByCity returns listings for a city, optionally filtered by category,
// most visible first.
func (r *Repository) ListByCity(ctx context.Context, city, category string, limit int) ([]listing.Listing, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE city = $1 AND ($2 = '' OR category = $2)
		ORDER BY visibility_score DESC, name
		LIMIT $3
	`, listingColumns)

	rows, err := r.q.Query(ctx, q, city, category, limit)
	if err != nil {
		return nil, fmt.Errorf("querying listings for city %s: %w", city, err)
	}
	return collectListings(rows)
}

// Count returns the total number of stored listings.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return n, nil
}

// Clear deletes every listing. Callers are expected to back the table up
// first; see pipeline.BackupAndClear.
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("clearing listings: %w", err)
	}
	return nil
}

// insertArgs flattens a listing into the column order of listingColumns.
func insertArgs(l listing.Listing) ([]any, error) {
	hours, err := json.Marshal(hoursOrEmpty(l.HoursOfOperation))
	if err != nil {
		return nil, fmt.Errorf("marshaling hours of operation: %w", err)
	}

	var raw any
	if len(l.Raw) > 0 {
		raw = []byte(l.Raw)
	}

	return []any{
		l.ID,
		listing.Resolve(&l).Key(),
		l.ExternalID,
		l.Slug,
		string(l.Source),
		l.Name,
		l.City,
		l.Country,
		l.Region,
		l.Address,
		l.Latitude,
		l.Longitude,
		l.Category,
		l.LocationType,
		l.Rating,
		l.ReviewCount,
		l.VisibilityScore,
		l.Verified,
		l.Description,
		sliceOrEmpty(l.Amenities),
		sliceOrEmpty(l.Highlights),
		hours,
		sliceOrEmpty(l.PhotoURLs),
		l.PriceLevel,
		l.WebURL,
		string(l.FetchStatus),
		l.FetchErrorMessage,
		l.LastVerifiedAt,
		l.CreatedAt,
		l.UpdatedAt,
		raw,
	}, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func hoursOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// mergeSetClause builds the DO UPDATE SET list for the given merge mode.
func mergeSetClause(mode listing.MergeMode) string {
	fill := mode == listing.FillEmpty

	// Fill-once string columns: empty string counts as absent.
	str := func(col string) string {
		if fill {
			return fmt.Sprintf("%[1]s = CASE WHEN listings.%[1]s = '' THEN EXCLUDED.%[1]s ELSE listings.%[1]s END", col)
		}
		return fmt.Sprintf("%[1]s = CASE WHEN EXCLUDED.%[1]s = '' THEN listings.%[1]s ELSE EXCLUDED.%[1]s END", col)
	}
	// Nullable columns: a NULL never replaces a value in either mode.
	nullable := func(col string) string {
		if fill {
			return fmt.Sprintf("%[1]s = COALESCE(listings.%[1]s, EXCLUDED.%[1]s)", col)
		}
		return fmt.Sprintf("%[1]s = COALESCE(EXCLUDED.%[1]s, listings.%[1]s)", col)
	}
	arr := func(col string) string {
		if fill {
			return fmt.Sprintf("%[1]s = CASE WHEN cardinality(listings.%[1]s) = 0 THEN EXCLUDED.%[1]s ELSE listings.%[1]s END", col)
		}
		return fmt.Sprintf("%[1]s = CASE WHEN cardinality(EXCLUDED.%[1]s) = 0 THEN listings.%[1]s ELSE EXCLUDED.%[1]s END", col)
	}

	hours := `hours_of_operation = CASE WHEN listings.hours_of_operation = '{}'::jsonb THEN EXCLUDED.hours_of_operation ELSE listings.hours_of_operation END`
	if !fill {
		hours = `hours_of_operation = CASE WHEN EXCLUDED.hours_of_operation = '{}'::jsonb THEN listings.hours_of_operation ELSE EXCLUDED.hours_of_operation END`
	}

	// Merged expressions reused by the visibility recompute below.
	ratingExpr := "COALESCE(listings.rating, EXCLUDED.rating)"
	reviewsExpr := "COALESCE(listings.review_count, EXCLUDED.review_count)"
	photosExpr := "CASE WHEN cardinality(listings.photo_urls) = 0 THEN EXCLUDED.photo_urls ELSE listings.photo_urls END"
	if !fill {
		ratingExpr = "COALESCE(EXCLUDED.rating, listings.rating)"
		reviewsExpr = "COALESCE(EXCLUDED.review_count, listings.review_count)"
		photosExpr = "CASE WHEN cardinality(EXCLUDED.photo_urls) = 0 THEN listings.photo_urls ELSE EXCLUDED.photo_urls END"
	}

	visibility := fmt.Sprintf(`visibility_score = ROUND((
		LEAST(40, 40 * COALESCE(%s, 0) / 5)
		+ LEAST(40, 40 * COALESCE(%s, 0) / 1000.0)
		+ CASE WHEN cardinality(%s) > 0 THEN 10 ELSE 0 END
		+ CASE WHEN listings.verified OR EXCLUDED.verified THEN 10 ELSE 0 END
	)::numeric, 2)`, ratingExpr, reviewsExpr, photosExpr)

	cols := []string{
		str("external_id"),
		str("slug"),
		str("name"),
		str("city"),
		str("country"),
		str("region"),
		str("category"),
		str("location_type"),
		nullable("address"),
		nullable("latitude"),
		nullable("longitude"),
		nullable("rating"),
		nullable("review_count"),
		"verified = listings.verified OR EXCLUDED.verified",
		nullable("description"),
		arr("amenities"),
		arr("highlights"),
		hours,
		arr("photo_urls"),
		nullable("price_level"),
		"web_url = COALESCE(EXCLUDED.web_url, listings.web_url)",
		"fetch_status = EXCLUDED.fetch_status",
		"fetch_error_message = EXCLUDED.fetch_error_message",
		"last_verified_at = EXCLUDED.last_verified_at",
		"updated_at = GREATEST(listings.updated_at, EXCLUDED.updated_at)",
		"raw = COALESCE(EXCLUDED.raw, listings.raw)",
		visibility,
	}
	return strings.Join(cols, ",\n\t\t")
}

func scanListing(row pgx.Row) (*listing.Listing, error) {
	var l listing.Listing
	var identityKey, source, fetchStatus string
	var hoursJSON []byte
	var rawJSON []byte

	err := row.Scan(
		&l.ID,
		&identityKey,
		&l.ExternalID,
		&l.Slug,
		&source,
		&l.Name,
		&l.City,
		&l.Country,
		&l.Region,
		&l.Address,
		&l.Latitude,
		&l.Longitude,
		&l.Category,
		&l.LocationType,
		&l.Rating,
		&l.ReviewCount,
		&l.VisibilityScore,
		&l.Verified,
		&l.Description,
		&l.Amenities,
		&l.Highlights,
		&hoursJSON,
		&l.PhotoURLs,
		&l.PriceLevel,
		&l.WebURL,
		&fetchStatus,
		&l.FetchErrorMessage,
		&l.LastVerifiedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
		&rawJSON,
	)
	if err != nil {
		return nil, err
	}

	l.Source = listing.Source(source)
	l.FetchStatus = listing.FetchStatus(fetchStatus)
	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &l.HoursOfOperation); err != nil {
			return nil, fmt.Errorf("unmarshaling hours of operation for %s: %w", identityKey, err)
		}
	}
	if len(rawJSON) > 0 {
		l.Raw = json.RawMessage(rawJSON)
	}
	return &l, nil
}

func collectListings(rows pgx.Rows) ([]listing.Listing, error) {
	defer rows.Close()

	var results []listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing row: %w", err)
		}
		results = append(results, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listing rows: %w", err)
	}
	return results, nil
}
