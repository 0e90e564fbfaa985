package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakbayph/listingsync/internal/listing"
)

const searchPage = `<html><body>
<a href="/Attraction_Review-g298573-d543636-Reviews-Fort_Santiago.html">Fort Santiago</a>
<a href="/Attraction_Review-g298573-d543636-Reviews-Fort_Santiago.html">Fort Santiago</a>
<a href="/Hotel_Review-g298573-d301234-Reviews-Manila_Hotel.html">Manila Hotel</a>
<a href="/Tourism-g298573-Manila.html">Manila tourism</a>
<a href="/Attraction_Review-g298573-d999999-Reviews-Unnamed.html"></a>
</body></html>`

const detailPage = `<html><body>
<h1>Fort Santiago</h1>
<span>4.5 of 5 bubbles</span>
<span>12,345 reviews</span>
<address>Intramuros, Manila 1002</address>
<p>short</p>
<p>A storied citadel at the mouth of the Pasig River, Fort Santiago anchors the walled city of Intramuros.</p>
<img src="https://media.example.com/photo/fort.jpg"/>
<img src="https://cdn.example.com/script.js"/>
</body></html>`

func newScrapeFixture(t *testing.T) (*ScrapeProducer, *httptest.Server) {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(site.Close)

	// The proxy echoes back canned pages depending on the target URL.
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		switch {
		case strings.Contains(target, "/Search"):
			_, _ = w.Write([]byte(searchPage))
		default:
			_, _ = w.Write([]byte(detailPage))
		}
	}))
	t.Cleanup(proxy.Close)

	tr := NewTransport(proxy.URL, []string{"key-a"})
	return NewScrapeProducer(tr, site.URL), proxy
}

func TestScrapeProducer_Fetch(t *testing.T) {
	p, _ := newScrapeFixture(t)
	p.detailCap = 1 // only the first result gets a detail fetch

	records, err := p.Fetch(context.Background(), Unit{City: "Manila", Category: "Attractions"})
	require.NoError(t, err)
	require.Len(t, records, 2, "duplicate, non-listing, and unnamed links are dropped")

	first := records[0]
	assert.Equal(t, listing.SourceScrape, first.Source)
	assert.Equal(t, "Fort Santiago", first.Fields["name"])
	assert.Equal(t, "Manila", first.Fields["city"])
	assert.Equal(t, 4.5, first.Fields["rating"])
	assert.Equal(t, 12345, first.Fields["review_count"])
	assert.Equal(t, "Intramuros, Manila 1002", first.Fields["address"])
	assert.Contains(t, first.Fields["description"], "storied citadel")
	assert.Equal(t, []string{"https://media.example.com/photo/fort.jpg"}, first.Fields["photo_urls"])

	second := records[1]
	assert.Equal(t, "Manila Hotel", second.Fields["name"])
	assert.NotContains(t, second.Fields, "rating", "past the detail cap only search fields are present")

	// Normalization end-to-end: the detail record resolves to the URL id.
	l := listing.Normalize(first, now())
	assert.Equal(t, "543636", l.ExternalID)
}

func TestScrapeProducer_SearchFailureFailsUnit(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	p := NewScrapeProducer(NewTransport(proxy.URL, []string{"key-a"}), "https://site.example.com")

	_, err := p.Fetch(context.Background(), Unit{City: "Manila", Category: "Hotels"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
