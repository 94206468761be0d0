package repositories

import (
	"context"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// PortfolioRepository defines the interface for fan token portfolio lookups
type PortfolioRepository interface {
	// GetPortfolio returns every holder of the token with a positive balance.
	// An unknown token yields an empty slice, not an error.
	GetPortfolio(ctx context.Context, symbol string) ([]entities.PortfolioEntry, error)
}
