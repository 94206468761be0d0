package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/cache"
)

const defaultEnrichConcurrency = 8

// HoldersService ranks the holders of a fan token and decorates them with social profiles
type HoldersService struct {
	portfolioRepo  repositories.PortfolioRepository
	resolutionRepo repositories.ResolutionRepository
	socialRepo     repositories.SocialRepository
	cache          *cache.RedisCache
	holdersTTL     time.Duration
	profileTTL     time.Duration
	concurrency    int
	logger         *zap.Logger
}

// NewHoldersService creates a new holders service
func NewHoldersService(
	portfolioRepo repositories.PortfolioRepository,
	resolutionRepo repositories.ResolutionRepository,
	socialRepo repositories.SocialRepository,
	cache *cache.RedisCache,
	cacheCfg config.CacheConfig,
	concurrency int,
	logger *zap.Logger,
) *HoldersService {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &HoldersService{
		portfolioRepo:  portfolioRepo,
		resolutionRepo: resolutionRepo,
		socialRepo:     socialRepo,
		cache:          cache,
		holdersTTL:     cacheCfg.HoldersTTL,
		profileTTL:     cacheCfg.ProfileTTL,
		concurrency:    concurrency,
		logger:         logger,
	}
}

// GetTopHolders returns the ranked, enriched holders of the fan token of fid.
//
// ErrNoHolders and ErrNoMatchedHolders report the two empty outcomes.
// Holders whose profile cannot be fetched are omitted, so the result may
// be shorter than the aggregate and may be empty.
func (s *HoldersService) GetTopHolders(ctx context.Context, fid int64) ([]entities.EnrichedHolder, error) {
	cacheKey := cache.HoldersKey(fid)

	// Try cache first
	if s.cache != nil {
		var cached []entities.EnrichedHolder
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			holdersCacheHits.Inc()
			return cached, nil
		}
	}

	entries, err := s.portfolioRepo.GetPortfolio(ctx, entities.TokenSymbol(fid))
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoHolders
	}

	table, err := s.resolutionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolution table: %w", err)
	}

	aggregated, err := Aggregate(entries, table)
	if err != nil {
		return nil, err
	}

	holders := s.enrich(ctx, aggregated)

	s.logger.Debug("Ranked fan token holders",
		zap.Int64("fid", fid),
		zap.Int("entries", len(entries)),
		zap.Int("aggregated", len(aggregated)),
		zap.Int("enriched", len(holders)),
	)

	// Partial results are not cached
	if s.cache != nil && len(holders) == len(aggregated) {
		if err := s.cache.SetWithTTL(ctx, cacheKey, holders, s.holdersTTL); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return holders, nil
}

// GetProfile returns the social profile of fid
func (s *HoldersService) GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error) {
	return cache.Remember(ctx, s.cache, cache.ProfileKey(fid), s.profileTTL,
		func(ctx context.Context) (*entities.SocialProfile, error) {
			return s.socialRepo.GetProfile(ctx, fid)
		},
	)
}

// enrich fetches profiles with bounded concurrency. Each result lands in
// the slot of its holder, so output keeps the aggregate rank order.
func (s *HoldersService) enrich(ctx context.Context, holders []entities.AggregatedHolder) []entities.EnrichedHolder {
	slots := make([]*entities.EnrichedHolder, len(holders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range holders {
		i := i
		h := holders[i]
		g.Go(func() error {
			profile, err := s.GetProfile(gctx, h.FID)
			if err != nil {
				enrichmentFailures.Inc()
				s.logger.Warn("Failed to enrich holder",
					zap.Int64("fid", h.FID),
					zap.String("address", h.Record.Address),
					zap.Error(err),
				)
				return nil
			}
			enriched := newEnrichedHolder(h, profile)
			slots[i] = &enriched
			return nil
		})
	}

	// Workers never return errors
	_ = g.Wait()

	out := make([]entities.EnrichedHolder, 0, len(holders))
	for _, e := range slots {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func newEnrichedHolder(h entities.AggregatedHolder, profile *entities.SocialProfile) entities.EnrichedHolder {
	name := profile.ProfileName
	if name == "" {
		name = h.Record.ProfileName
	}

	return entities.EnrichedHolder{
		FID:         h.FID,
		Balance:     FormatBalance(h.TotalBalance),
		RawBalance:  h.TotalBalance.String(),
		Address:     h.Record.Address,
		ProfileName: TruncateProfileName(name),
		ShareName:   name,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		Type:        h.Record.Type,
		Entries:     h.Entries,
	}
}
