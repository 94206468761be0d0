package resolution

import (
	"context"
	"fmt"

	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

// Import copies the dataset of src into dst. It returns the number of
// records read and the rows dst reports as affected.
func Import(ctx context.Context, src *FileRepo, dst repositories.ResolutionWriter) (int, int64, error) {
	records, err := src.ReadRecords(ctx)
	if err != nil {
		return 0, 0, err
	}

	affected, err := dst.Upsert(ctx, records)
	if err != nil {
		return len(records), 0, fmt.Errorf("failed to import %d resolution records: %w", len(records), err)
	}

	return len(records), affected, nil
}
