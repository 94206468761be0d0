package subgraph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

// Ensure PortfolioRepo implements PortfolioRepository
var _ repositories.PortfolioRepository = (*PortfolioRepo)(nil)

const portfolioQuery = `
query Portfolio($symbol: String, $first: Int) {
  subjectTokens(where: { symbol: $symbol }) {
    portfolio(first: $first, where: { balance_gt: 0 }, orderBy: balance, orderDirection: desc) {
      balance
      user {
        id
      }
    }
  }
}`

type portfolioData struct {
	SubjectTokens []struct {
		Portfolio []struct {
			Balance string `json:"balance"`
			User    struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"portfolio"`
	} `json:"subjectTokens"`
}

// PortfolioRepo implements PortfolioRepository against a fan token subgraph
type PortfolioRepo struct {
	client   *httpclient.Client
	url      string
	pageSize int
	logger   *zap.Logger
}

// NewPortfolioRepo creates a new subgraph portfolio repository
func NewPortfolioRepo(client *httpclient.Client, cfg config.SubgraphConfig, logger *zap.Logger) *PortfolioRepo {
	return &PortfolioRepo{
		client:   client,
		url:      cfg.URL,
		pageSize: cfg.PageSize,
		logger:   logger,
	}
}

// GetPortfolio retrieves all holders with a positive balance of the token
func (r *PortfolioRepo) GetPortfolio(ctx context.Context, symbol string) ([]entities.PortfolioEntry, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	var data portfolioData
	vars := map[string]interface{}{
		"symbol": symbol,
		"first":  r.pageSize,
	}
	if err := r.client.GraphQL(ctx, r.url, portfolioQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to query portfolio for %s: %w", symbol, err)
	}

	if len(data.SubjectTokens) == 0 {
		r.logger.Debug("Subject token not found", zap.String("symbol", symbol))
		return []entities.PortfolioEntry{}, nil
	}

	rows := data.SubjectTokens[0].Portfolio
	entries := make([]entities.PortfolioEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entities.PortfolioEntry{
			Balance:       row.Balance,
			HolderAddress: strings.ToLower(row.User.ID),
		})
	}

	r.logger.Debug("Fetched portfolio",
		zap.String("symbol", symbol),
		zap.Int("entries", len(entries)),
	)

	return entries, nil
}
