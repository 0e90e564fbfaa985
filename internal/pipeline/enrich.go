package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lakbayph/listingsync/internal/checkpoint"
	"github.com/lakbayph/listingsync/internal/listing"
	"github.com/lakbayph/listingsync/internal/source"
)

// PageReader walks stored listings in stable pages. *storage.Repository
// satisfies it.
type PageReader interface {
	SelectPage(ctx context.Context, offset, limit int) ([]listing.Listing, error)
}

// DefaultPageSize is how many listings one enrichment page pulls.
const DefaultPageSize = 1000

// enrichTimeout bounds a single LLM call.
const enrichTimeout = 30 * time.Second

// EnrichOptions configures an enrichment run.
type EnrichOptions struct {
	// City restricts enrichment to one city; empty means all.
	City string
	// Limit caps how many listings are enriched this run; 0 means no cap.
	Limit int
	// DryRun calls the enricher but never writes results back.
	DryRun bool
	// Resume picks up from a previous checkpoint.
	Resume bool
	// PageSize overrides DefaultPageSize; mostly for tests.
	PageSize int
}

// EnrichRunner fills gaps in stored listings using an LLM enricher.
// Only listings with missing opinion fields are sent out; results merge
// back fill-empty so the enricher can never clobber sourced data.
type EnrichRunner struct {
	repo     PageReader
	enricher source.Enricher
	exec     Flusher
	ledger   *checkpoint.Ledger
	errs     *checkpoint.ErrorLog
	log      *slog.Logger
	now      func() time.Time
}

// NewEnrichRunner wires an EnrichRunner.
func NewEnrichRunner(repo PageReader, enricher source.Enricher, exec Flusher, ledger *checkpoint.Ledger, errs *checkpoint.ErrorLog, log *slog.Logger) *EnrichRunner {
	return &EnrichRunner{
		repo:     repo,
		enricher: enricher,
		exec:     exec,
		ledger:   ledger,
		errs:     errs,
		log:      log,
		now:      time.Now,
	}
}

// NeedsEnrichment reports whether a listing has gaps worth an LLM call.
func NeedsEnrichment(l *listing.Listing) bool {
	return l.Description == nil ||
		len(l.HoursOfOperation) == 0 ||
		len(l.Amenities) == 0 ||
		l.PriceLevel == nil
}

// Run pages through stored listings and enriches the ones with gaps.
// Each merged result is written back before its checkpoint entry is
// saved, so a resumed run never skips a listing that was checkpointed
// but not stored. The LLM call dominates the cost of a candidate, so the
// single-row upsert per candidate is noise. The checkpoint indexes the
// filtered candidate sequence; resuming only works with the same city
// filter.
func (e *EnrichRunner) Run(ctx context.Context, opts EnrichOptions) (Summary, error) {
	if opts.Resume {
		if err := e.ledger.Resume(ctx); err != nil {
			return Summary{}, fmt.Errorf("resuming checkpoint: %w", err)
		}
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	e.log.Info("enrichment starting",
		"provider", e.enricher.Name(),
		"resume_from", e.ledger.State().Processed,
		"dry_run", opts.DryRun,
	)

	candidateIdx := 0
	handled := 0
	offset := 0
	complete := true

	for complete {
		page, err := e.repo.SelectPage(ctx, offset, pageSize)
		if err != nil {
			return e.summary(), fmt.Errorf("reading listings page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			stored := page[i]
			if opts.City != "" && !strings.EqualFold(stored.City, opts.City) {
				continue
			}
			if !NeedsEnrichment(&stored) {
				continue
			}

			idx := candidateIdx
			candidateIdx++
			if e.ledger.ShouldSkip(idx) {
				continue
			}
			if ctx.Err() != nil {
				e.log.Warn("enrichment interrupted", "listing", stored.Name)
				complete = false
				break
			}
			if opts.Limit > 0 && handled >= opts.Limit {
				complete = false
				break
			}
			handled++

			key := listing.Resolve(&stored).Key()
			callCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
			rec, err := e.enricher.Enrich(callCtx, &stored)
			cancel()
			if err != nil {
				e.errs.Add(key, stored.Name, stored.City, err)
				e.log.Error("enrichment failed", "listing", stored.Name, "error", err)
				if err := e.ledger.Advance(ctx, key, checkpoint.OutcomeError); err != nil {
					return e.summary(), fmt.Errorf("saving checkpoint: %w", err)
				}
				continue
			}

			incoming := listing.Normalize(rec, e.now())
			merged := listing.Merge(stored, incoming, listing.FillEmpty)

			if !opts.DryRun && e.exec.Flush(ctx, []listing.Listing{merged}) == 0 {
				if ctx.Err() != nil {
					e.log.Warn("enrichment interrupted", "listing", stored.Name)
					complete = false
					break
				}
				// The executor already logged the write failure; the
				// candidate counts as an error so the checkpoint survives.
				e.errs.Add(key, stored.Name, stored.City, fmt.Errorf("storing enrichment failed"))
				if err := e.ledger.Advance(ctx, key, checkpoint.OutcomeError); err != nil {
					return e.summary(), fmt.Errorf("saving checkpoint: %w", err)
				}
				continue
			}

			if err := e.ledger.Advance(ctx, key, checkpoint.OutcomeUpdated); err != nil {
				return e.summary(), fmt.Errorf("saving checkpoint: %w", err)
			}
		}

		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}

	if !complete {
		s := e.summary()
		e.log.Info("enrichment stopped early, checkpoint kept",
			"enriched", s.Updated, "upserted", s.Upserted,
		)
		return s, nil
	}

	if err := e.ledger.Finish(ctx); err != nil {
		return e.summary(), fmt.Errorf("finishing checkpoint: %w", err)
	}

	s := e.summary()
	e.log.Info("enrichment finished",
		"enriched", s.Updated, "errors", s.Errors, "upserted", s.Upserted,
	)
	return s, nil
}

func (e *EnrichRunner) summary() Summary {
	st := e.ledger.State()
	return Summary{
		Units:        st.Processed,
		Updated:      st.Updated,
		NotFound:     st.NotFound,
		Errors:       st.Errors,
		Upserted:     e.exec.Upserted(),
		FailedChunks: e.exec.FailedChunks(),
	}
}
