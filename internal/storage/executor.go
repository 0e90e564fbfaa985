package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/lakbayph/listingsync/internal/listing"
)

// Upserter is the write surface the Executor drives. *Repository
// satisfies it; tests inject a fake.
type Upserter interface {
	UpsertChunk(ctx context.Context, records []listing.Listing, mode listing.MergeMode) error
}

const (
	// DefaultChunkSize bounds a single multi-row INSERT.
	DefaultChunkSize = 50
	// defaultChunkDelay paces writes so a large flush does not hog the pool.
	defaultChunkDelay = 100 * time.Millisecond
)

// Executor flushes batches of listings to the repository in fixed-size
// chunks. A failed chunk is logged and skipped; it never aborts the flush,
// so one bad batch costs at most DefaultChunkSize records.
type Executor struct {
	repo      Upserter
	mode      listing.MergeMode
	chunkSize int
	delay     time.Duration
	log       *slog.Logger

	upserted     int
	failedChunks int
}

// NewExecutor constructs an Executor with default chunking.
func NewExecutor(repo Upserter, mode listing.MergeMode, log *slog.Logger) *Executor {
	return &Executor{
		repo:      repo,
		mode:      mode,
		chunkSize: DefaultChunkSize,
		delay:     defaultChunkDelay,
		log:       log,
	}
}

// Flush writes all records in chunks and returns how many were upserted
// in this call. Context cancellation stops the flush early.
func (e *Executor) Flush(ctx context.Context, records []listing.Listing) int {
	flushed := 0
	for start := 0; start < len(records); start += e.chunkSize {
		if ctx.Err() != nil {
			e.log.Warn("flush interrupted", "remaining", len(records)-start)
			break
		}

		end := start + e.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if err := e.repo.UpsertChunk(ctx, chunk, e.mode); err != nil {
			e.failedChunks++
			e.log.Error("chunk upsert failed", "offset", start, "size", len(chunk), "error", err)
			continue
		}

		e.upserted += len(chunk)
		flushed += len(chunk)

		if end < len(records) && e.delay > 0 {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
			}
		}
	}
	return flushed
}

// Upserted returns the total records written across all flushes.
func (e *Executor) Upserted() int { return e.upserted }

// FailedChunks returns how many chunks were dropped due to write errors.
func (e *Executor) FailedChunks() int { return e.failedChunks }
