package repositories

import (
	"context"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// ResolutionRepository loads the address to social identity table
type ResolutionRepository interface {
	// Load returns the full table. A missing or empty dataset is an error.
	Load(ctx context.Context) (*entities.ResolutionTable, error)
}

// ResolutionWriter persists resolution records
type ResolutionWriter interface {
	// Upsert inserts or updates records keyed by address
	Upsert(ctx context.Context, records []entities.ResolutionRecord) (int64, error)
}
