package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lakbayph/listingsync/internal/listing"
)

const (
	partnerTimeout = 10 * time.Second

	// detailConcurrency bounds the detail-endpoint fan-out within one
	// unit; units themselves stay strictly sequential.
	detailConcurrency = 4
)

// PartnerProducer queries the travel-data partner API: one search call
// per unit, then a details call per returned location id.
type PartnerProducer struct {
	apiKey  string
	baseURL string
	limit   int
	client  *http.Client
}

// NewPartnerProducer builds a PartnerProducer against the given API base
// URL, returning at most limit locations per search.
func NewPartnerProducer(baseURL, apiKey string, limit int) *PartnerProducer {
	return &PartnerProducer{
		apiKey:  apiKey,
		baseURL: baseURL,
		limit:   limit,
		client:  &http.Client{Timeout: partnerTimeout},
	}
}

func (p *PartnerProducer) Name() string { return "partner_api" }

type partnerSearchResponse struct {
	Data []map[string]any `json:"data"`
}

// Fetch searches for "<category> in <city> Philippines" and enriches each
// hit from the details endpoint. Detail failures degrade that record to
// its search fields only.
func (p *PartnerProducer) Fetch(ctx context.Context, unit Unit) ([]listing.RawRecord, error) {
	q := url.Values{}
	q.Set("searchQuery", unit.Category+" in "+unit.City+" Philippines")
	q.Set("limit", fmt.Sprintf("%d", p.limit))

	var search partnerSearchResponse
	if err := p.getJSON(ctx, p.baseURL+"/location/search?"+q.Encode(), &search); err != nil {
		return nil, fmt.Errorf("partner search for %s/%s: %w", unit.City, unit.Category, err)
	}

	records := make([]listing.RawRecord, len(search.Data))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for i, item := range search.Data {
		g.Go(func() error {
			fields := map[string]any{
				"city":     unit.City,
				"category": unit.Category,
			}
			for k, v := range item {
				fields[k] = v
			}
			flattenAddressObj(fields)

			if id, ok := item["location_id"].(string); ok && id != "" {
				var detail map[string]any
				detailURL := p.baseURL + "/location/" + url.PathEscape(id) + "/details"
				if err := p.getJSON(gCtx, detailURL, &detail); err == nil {
					for k, v := range detail {
						if _, exists := fields[k]; !exists {
							fields[k] = v
						}
					}
					flattenAddressObj(fields)
				}
			}

			mu.Lock()
			records[i] = listing.RawRecord{Source: listing.SourcePartnerAPI, Fields: fields}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("partner details for %s/%s: %w", unit.City, unit.Category, err)
	}
	return records, nil
}

func (p *PartnerProducer) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("X-TripAdvisor-API-Key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// flattenAddressObj lifts the nested address_obj the API returns into the
// flat keys the normalizer looks for. Existing values stay put; the
// unit's city in particular must not be replaced, or a record would drift
// into a different grouping and slug identity than the unit that fetched
// it.
func flattenAddressObj(fields map[string]any) {
	obj, ok := fields["address_obj"].(map[string]any)
	if !ok {
		return
	}
	parts := make([]string, 0, 3)
	for _, k := range []string{"street1", "city", "country"} {
		if s, ok := obj[k].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		if _, exists := fields["address"]; !exists {
			fields["address"] = joinNonEmpty(parts)
		}
	}
	if s, ok := obj["city"].(string); ok && s != "" {
		if existing, _ := fields["city"].(string); existing == "" {
			fields["city"] = s
		}
	}
	if s, ok := obj["country"].(string); ok && s != "" {
		if existing, _ := fields["country"].(string); existing == "" {
			fields["country"] = s
		}
	}
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if out == "" {
			out = p
			continue
		}
		out += ", " + p
	}
	return out
}
