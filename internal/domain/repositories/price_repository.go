package repositories

import (
	"context"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// PriceRepository defines the interface for spot price lookups
type PriceRepository interface {
	// GetPrice fetches the price of assetID quoted in currency
	GetPrice(ctx context.Context, assetID, currency string) (*entities.Price, error)
}
