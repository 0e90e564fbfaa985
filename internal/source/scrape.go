package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lakbayph/listingsync/internal/listing"
)

// detailFetchCap bounds how many detail pages one unit may pull; search
// pages routinely link far more results than a unit is worth.
const detailFetchCap = 30

var (
	listingHrefPattern = regexp.MustCompile(`-d\d+-`)
	ratingPattern      = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\s*(?:of 5|stars|bubbles)`)
	reviewCountPattern = regexp.MustCompile(`([\d,]+)\s*reviews?`)
)

// ScrapeProducer extracts raw records from review-site HTML fetched
// through the rotating-key transport: one search page per unit, then one
// detail page per discovered listing.
type ScrapeProducer struct {
	transport *Transport
	baseURL   string
	detailCap int
}

// NewScrapeProducer builds a ScrapeProducer against the given site base URL.
func NewScrapeProducer(transport *Transport, baseURL string) *ScrapeProducer {
	return &ScrapeProducer{transport: transport, baseURL: baseURL, detailCap: detailFetchCap}
}

func (s *ScrapeProducer) Name() string { return "scrape" }

// Fetch pulls the search page for the unit's (city, category) query and a
// detail page per result. A detail page that fails to fetch degrades that
// record to whatever the search result carried; it does not fail the unit.
func (s *ScrapeProducer) Fetch(ctx context.Context, unit Unit) ([]listing.RawRecord, error) {
	searchURL := s.baseURL + "/Search?q=" + url.QueryEscape(unit.City+" "+unit.Category)

	body, status, err := s.transport.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search fetch for %s/%s: %w", unit.City, unit.Category, err)
	}
	if body == nil {
		return nil, fmt.Errorf("search fetch for %s/%s: status %d, no body", unit.City, unit.Category, status)
	}

	links, err := s.parseSearchResults(body)
	if err != nil {
		return nil, fmt.Errorf("parsing search results for %s/%s: %w", unit.City, unit.Category, err)
	}

	records := make([]listing.RawRecord, 0, len(links))
	for i, link := range links {
		fields := map[string]any{
			"name":     link.name,
			"city":     unit.City,
			"category": unit.Category,
			"web_url":  link.url,
		}

		if i < s.detailCap {
			if detail, _, err := s.transport.Fetch(ctx, link.url); err == nil && detail != nil {
				mergeDetailFields(fields, detail)
			}
		}

		records = append(records, listing.RawRecord{Source: listing.SourceScrape, Fields: fields})
	}
	return records, nil
}

type searchLink struct {
	name string
	url  string
}

// parseSearchResults pulls listing links out of a search page: anchors
// whose href carries a -d<id>- segment, deduped by URL.
func (s *ScrapeProducer) parseSearchResults(html []byte) ([]searchLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []searchLink
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !listingHrefPattern.MatchString(href) {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		full := href
		if !strings.HasPrefix(href, "http") {
			full = s.baseURL + href
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, searchLink{name: name, url: full})
	})
	return links, nil
}

// mergeDetailFields enriches a search-result record with whatever a
// listing's detail page yields. Extraction is heuristic; any field that
// does not match is simply left out and the normalizer nulls it.
func mergeDetailFields(fields map[string]any, html []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return
	}
	text := doc.Text()

	if m := ratingPattern.FindStringSubmatch(text); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			fields["rating"] = v
		}
	}
	if m := reviewCountPattern.FindStringSubmatch(text); len(m) > 1 {
		if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			fields["review_count"] = v
		}
	}
	if addr := strings.TrimSpace(doc.Find("address").First().Text()); addr != "" {
		fields["address"] = addr
	}

	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t := strings.TrimSpace(sel.Text())
		if len(t) >= 50 && len(t) < 500 {
			fields["description"] = t
			return false
		}
		return true
	})

	var photos []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if strings.HasPrefix(src, "http") && looksLikePhoto(src) {
			photos = append(photos, src)
		}
	})
	if len(photos) > 0 {
		fields["photo_urls"] = photos
	}
}

func looksLikePhoto(src string) bool {
	for _, marker := range []string{"media", "photo", "image"} {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}
