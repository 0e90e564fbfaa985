package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lakbayph/listingsync/internal/listing"
)

// BackupStore is the storage surface a backup-and-clear needs.
// *storage.Repository satisfies it.
type BackupStore interface {
	PageReader
	Clear(ctx context.Context) error
}

// BackupAndClear dumps every stored listing to a JSON file, then deletes
// the table contents. Used before a full refetch so the data is
// recoverable if the refetch goes badly. The clear only happens after the
// dump file is fully written and renamed into place.
func BackupAndClear(ctx context.Context, store BackupStore, path string, log *slog.Logger) (int, error) {
	var all []listing.Listing
	offset := 0
	for {
		page, err := store.SelectPage(ctx, offset, DefaultPageSize)
		if err != nil {
			return 0, fmt.Errorf("reading listings for backup: %w", err)
		}
		all = append(all, page...)
		if len(page) < DefaultPageSize {
			break
		}
		offset += DefaultPageSize
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating backup dir %s: %w", dir, err)
		}
	}

	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling backup: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, fmt.Errorf("writing backup %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("replacing backup %s: %w", path, err)
	}

	log.Info("backup written", "path", path, "listings", len(all))

	if err := store.Clear(ctx); err != nil {
		return len(all), fmt.Errorf("clearing listings after backup: %w", err)
	}
	return len(all), nil
}
