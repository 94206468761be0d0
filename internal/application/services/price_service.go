package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/cache"
)

// PriceService provides the spot price of the fan token reserve asset
type PriceService struct {
	priceRepo repositories.PriceRepository
	cache     *cache.RedisCache
	assetID   string
	currency  string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewPriceService creates a new price service
func NewPriceService(
	priceRepo repositories.PriceRepository,
	cache *cache.RedisCache,
	priceCfg config.PriceConfig,
	ttl time.Duration,
	logger *zap.Logger,
) *PriceService {
	return &PriceService{
		priceRepo: priceRepo,
		cache:     cache,
		assetID:   priceCfg.AssetID,
		currency:  priceCfg.Currency,
		ttl:       ttl,
		logger:    logger,
	}
}

// PriceResponse is the API response for price queries
type PriceResponse struct {
	Price float64 `json:"price"`
}

// GetPrice retrieves the configured asset price
func (s *PriceService) GetPrice(ctx context.Context) (*PriceResponse, error) {
	price, err := cache.Remember(ctx, s.cache, cache.PriceKey(s.assetID, s.currency), s.ttl,
		func(ctx context.Context) (*entities.Price, error) {
			return s.priceRepo.GetPrice(ctx, s.assetID, s.currency)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	return &PriceResponse{Price: price.Value}, nil
}
