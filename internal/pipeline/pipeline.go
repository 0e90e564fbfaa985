// Package pipeline drives the ingestion runs: enumerate (city, category)
// units, fetch raw records from a source, normalize and merge them, and
// flush each unit to storage before its checkpoint advances. Units are
// processed strictly one at a time so the checkpoint index stays
// meaningful; any fan-out happens inside a producer, never across units.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lakbayph/listingsync/internal/checkpoint"
	"github.com/lakbayph/listingsync/internal/geo"
	"github.com/lakbayph/listingsync/internal/listing"
	"github.com/lakbayph/listingsync/internal/source"
)

// Flusher is the write side of a run. *storage.Executor satisfies it.
type Flusher interface {
	Flush(ctx context.Context, records []listing.Listing) int
	Upserted() int
	FailedChunks() int
}

// Options configures a sync run.
type Options struct {
	// City restricts the run to one city; empty means all known cities.
	City string
	// Category restricts the run to one category; empty means all.
	Category string
	// Limit caps how many units are handled this run; 0 means no cap.
	Limit int
	// DryRun fetches and normalizes but never writes to storage.
	DryRun bool
	// Resume picks up from a previous checkpoint instead of starting over.
	Resume bool
	// Mode is the merge rule for records colliding within the run.
	Mode listing.MergeMode
}

// Summary reports what a run did.
type Summary struct {
	Units        int
	Updated      int
	NotFound     int
	Errors       int
	Upserted     int
	FailedChunks int
}

// Runner executes sync runs for one producer.
type Runner struct {
	producer source.Producer
	exec     Flusher
	ledger   *checkpoint.Ledger
	errs     *checkpoint.ErrorLog
	log      *slog.Logger
	now      func() time.Time
}

// NewRunner wires a Runner. The error log is owned by the caller so it can
// be written out after the run.
func NewRunner(producer source.Producer, exec Flusher, ledger *checkpoint.Ledger, errs *checkpoint.ErrorLog, log *slog.Logger) *Runner {
	return &Runner{
		producer: producer,
		exec:     exec,
		ledger:   ledger,
		errs:     errs,
		log:      log,
		now:      time.Now,
	}
}

// Units enumerates the (city, category) work items in the fixed order the
// checkpoint indexes against. The order only depends on the filter flags,
// so a resumed run with the same flags sees the same sequence.
func Units(city, category string) []source.Unit {
	cities := geo.Cities
	if city != "" {
		cities = []string{city}
	}
	categories := geo.Categories
	if category != "" {
		categories = []string{category}
	}

	units := make([]source.Unit, 0, len(cities)*len(categories))
	for _, c := range cities {
		for _, cat := range categories {
			units = append(units, source.Unit{City: c, Category: cat})
		}
	}
	return units
}

// Run processes every unit in sequence: fetch, normalize, dedupe within
// the unit, flush, and only then advance the checkpoint. The checkpoint
// must never claim records storage has not seen; a kill mid-run costs at
// most a refetch of the unit that was in flight. Identities colliding
// across units converge through the repository's merge-upsert. A unit
// that fails is recorded and skipped; it never stops the run.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Resume {
		if err := r.ledger.Resume(ctx); err != nil {
			return Summary{}, fmt.Errorf("resuming checkpoint: %w", err)
		}
	}

	units := Units(opts.City, opts.Category)
	r.log.Info("run starting",
		"source", r.producer.Name(),
		"units", len(units),
		"resume_from", r.ledger.State().Processed,
		"dry_run", opts.DryRun,
	)

	handled := 0
	complete := true

	for i, unit := range units {
		if ctx.Err() != nil {
			r.log.Warn("run interrupted", "unit", unitIdentity(unit))
			complete = false
			break
		}
		if r.ledger.ShouldSkip(i) {
			continue
		}
		if opts.Limit > 0 && handled >= opts.Limit {
			complete = false
			break
		}
		handled++

		identity := unitIdentity(unit)
		records, err := r.producer.Fetch(ctx, unit)
		if err != nil {
			r.errs.Add(identity, unit.Category, unit.City, err)
			r.log.Error("unit failed", "unit", identity, "error", err)
			if err := r.ledger.Advance(ctx, identity, checkpoint.OutcomeError); err != nil {
				return r.summary(), fmt.Errorf("saving checkpoint: %w", err)
			}
			continue
		}

		if len(records) == 0 {
			r.log.Info("unit empty", "unit", identity)
			if err := r.ledger.Advance(ctx, identity, checkpoint.OutcomeNotFound); err != nil {
				return r.summary(), fmt.Errorf("saving checkpoint: %w", err)
			}
			continue
		}

		batch := make([]listing.Listing, 0, len(records))
		index := map[string]int{}
		for _, rec := range records {
			l := listing.Normalize(rec, r.now())
			key := listing.Resolve(&l).Key()
			if at, seen := index[key]; seen {
				batch[at] = listing.Merge(batch[at], l, opts.Mode)
				continue
			}
			index[key] = len(batch)
			batch = append(batch, l)
		}

		if !opts.DryRun {
			flushed := r.exec.Flush(ctx, batch)
			if ctx.Err() != nil {
				// Interrupted mid-flush: the unit is not fully persisted,
				// so it stays out of the checkpoint and gets refetched on
				// resume.
				r.log.Warn("run interrupted", "unit", identity, "flushed", flushed)
				complete = false
				break
			}
		}

		r.log.Info("unit done", "unit", identity, "records", len(batch))
		if err := r.ledger.Advance(ctx, identity, checkpoint.OutcomeUpdated); err != nil {
			return r.summary(), fmt.Errorf("saving checkpoint: %w", err)
		}
	}

	if !complete {
		// Advance already persisted the progress; keeping the checkpoint
		// lets --resume pick up exactly where this run stopped.
		s := r.summary()
		r.log.Info("run stopped early, checkpoint kept",
			"units", s.Units, "upserted", s.Upserted,
		)
		return s, nil
	}

	if err := r.ledger.Finish(ctx); err != nil {
		return r.summary(), fmt.Errorf("finishing checkpoint: %w", err)
	}

	s := r.summary()
	r.log.Info("run finished",
		"units", s.Units, "updated", s.Updated, "not_found", s.NotFound,
		"errors", s.Errors, "upserted", s.Upserted,
	)
	return s, nil
}

func (r *Runner) summary() Summary {
	st := r.ledger.State()
	return Summary{
		Units:        st.Processed,
		Updated:      st.Updated,
		NotFound:     st.NotFound,
		Errors:       st.Errors,
		Upserted:     r.exec.Upserted(),
		FailedChunks: r.exec.FailedChunks(),
	}
}

func unitIdentity(u source.Unit) string {
	return u.City + "/" + u.Category
}
