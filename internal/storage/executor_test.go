package storage_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lakbayph/listingsync/internal/listing"
	"github.com/lakbayph/listingsync/internal/storage"
)

type fakeUpserter struct {
	chunks [][]listing.Listing
	failOn map[int]bool
}

func (f *fakeUpserter) UpsertChunk(_ context.Context, records []listing.Listing, _ listing.MergeMode) error {
	call := len(f.chunks)
	f.chunks = append(f.chunks, records)
	if f.failOn[call] {
		return fmt.Errorf("chunk %d failed", call)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeListings(n int) []listing.Listing {
	out := make([]listing.Listing, n)
	for i := range out {
		out[i] = sampleListing(fmt.Sprintf("%06d", i), fmt.Sprintf("Listing %d", i))
	}
	return out
}

func TestExecutor_ChunksAtFifty(t *testing.T) {
	repo := &fakeUpserter{}
	exec := storage.NewExecutor(repo, listing.FillEmpty, discardLogger())

	flushed := exec.Flush(context.Background(), makeListings(120))

	assert.Equal(t, 120, flushed)
	assert.Equal(t, 120, exec.Upserted())
	assert.Equal(t, 0, exec.FailedChunks())
	assert.Len(t, repo.chunks, 3)
	assert.Len(t, repo.chunks[0], 50)
	assert.Len(t, repo.chunks[1], 50)
	assert.Len(t, repo.chunks[2], 20)
}

func TestExecutor_FailedChunkDoesNotAbortFlush(t *testing.T) {
	repo := &fakeUpserter{failOn: map[int]bool{1: true}}
	exec := storage.NewExecutor(repo, listing.FillEmpty, discardLogger())

	flushed := exec.Flush(context.Background(), makeListings(120))

	assert.Equal(t, 70, flushed)
	assert.Equal(t, 70, exec.Upserted())
	assert.Equal(t, 1, exec.FailedChunks())
	assert.Len(t, repo.chunks, 3)
}

func TestExecutor_AccumulatesAcrossFlushes(t *testing.T) {
	repo := &fakeUpserter{}
	exec := storage.NewExecutor(repo, listing.FillEmpty, discardLogger())

	exec.Flush(context.Background(), makeListings(30))
	exec.Flush(context.Background(), makeListings(30))

	assert.Equal(t, 60, exec.Upserted())
}

func TestExecutor_CanceledContextStopsFlush(t *testing.T) {
	repo := &fakeUpserter{}
	exec := storage.NewExecutor(repo, listing.FillEmpty, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flushed := exec.Flush(ctx, makeListings(10))

	assert.Equal(t, 0, flushed)
	assert.Empty(t, repo.chunks)
}

func TestExecutor_EmptyFlush(t *testing.T) {
	repo := &fakeUpserter{}
	exec := storage.NewExecutor(repo, listing.FillEmpty, discardLogger())

	assert.Equal(t, 0, exec.Flush(context.Background(), nil))
	assert.Empty(t, repo.chunks)
}
