package api

import (
	"context"

	"github.com/lakbayph/listingsync/internal/listing"
)

// ListingRepo defines the storage operations needed by handlers.
type ListingRepo interface {
	ListByCity(ctx context.Context, city, category string, limit int) ([]listing.Listing, error)
	GetBySlug(ctx context.Context, city, slug string) (*listing.Listing, error)
	GetByKey(ctx context.Context, key string) (*listing.Listing, error)
}

// ListingCache defines the cache operations needed by handlers.
type ListingCache interface {
	Get(ctx context.Context, city, category string) ([]listing.Listing, error)
	Set(ctx context.Context, city, category string, results []listing.Listing) error
	Delete(ctx context.Context, city, category string) error
}
