package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

// Ensure PriceRepo implements PriceRepository
var _ repositories.PriceRepository = (*PriceRepo)(nil)

// PriceRepo implements PriceRepository using the CoinGecko simple price API
type PriceRepo struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.Logger
}

// NewPriceRepo creates a new price repository
func NewPriceRepo(client *httpclient.Client, cfg config.PriceConfig, logger *zap.Logger) *PriceRepo {
	return &PriceRepo{
		client:  client,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		logger:  logger,
	}
}

// GetPrice fetches the spot price of assetID in currency
func (r *PriceRepo) GetPrice(ctx context.Context, assetID, currency string) (*entities.Price, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", currency)
	endpoint := r.baseURL + "/simple/price?" + q.Encode()

	// The body is either {"<asset>":{"<currency>":n}} or {"error":...}
	var body map[string]json.RawMessage
	if err := r.client.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch price of %s: %w", assetID, err)
	}

	if raw, ok := body["error"]; ok {
		msg := upstreamErrorMessage(raw)
		r.logger.Error("Price API error", zap.String("asset", assetID), zap.String("error", msg))
		return nil, fmt.Errorf("price API error for %s: %s: %w", assetID, msg, repositories.ErrUpstream)
	}

	raw, ok := body[assetID]
	if !ok {
		return nil, fmt.Errorf("price of %s missing from response: %w", assetID, repositories.ErrUpstream)
	}

	var quotes map[string]float64
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, fmt.Errorf("decode price of %s: %w: %w", assetID, repositories.ErrUpstream, err)
	}

	value, ok := quotes[currency]
	if !ok {
		return nil, fmt.Errorf("price of %s in %s missing from response: %w", assetID, currency, repositories.ErrUpstream)
	}

	return &entities.Price{
		AssetID:   assetID,
		Currency:  currency,
		Value:     value,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// upstreamErrorMessage accepts both {"error":"msg"} and {"error":{"message":"msg"}}
func upstreamErrorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
