// Package source produces raw listing records from the three external
// origins: scraped HTML pages, the partner location API, and LLM
// enrichment. Producers are interchangeable behind one interface; the
// pipeline only ever sees RawRecords with a source tag.
package source

import (
	"context"

	"github.com/lakbayph/listingsync/internal/listing"
)

// Unit is one (city, category) enumeration step, the pipeline's smallest
// retryable work item.
type Unit struct {
	City     string
	Category string
}

// Producer fetches the raw records for one unit. Implementations return
// an empty slice (not an error) when the source simply has no results.
type Producer interface {
	Name() string
	Fetch(ctx context.Context, unit Unit) ([]listing.RawRecord, error)
}
