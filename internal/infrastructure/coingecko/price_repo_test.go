package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

func newTestRepo(t *testing.T, body string, status int) *PriceRepo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "moxie", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := httpclient.New("coingecko", 5*time.Second, logger)
	return NewPriceRepo(client, config.PriceConfig{URL: srv.URL + "/"}, logger)
}

func TestPriceRepo_GetPrice(t *testing.T) {
	repo := newTestRepo(t, `{"moxie":{"usd":0.00213}}`, http.StatusOK)

	price, err := repo.GetPrice(context.Background(), "moxie", "usd")
	require.NoError(t, err)
	assert.Equal(t, 0.00213, price.Value)
	assert.Equal(t, "moxie", price.AssetID)
	assert.False(t, price.FetchedAt.IsZero())
}

func TestPriceRepo_GetPrice_UpstreamErrorField(t *testing.T) {
	repo := newTestRepo(t, `{"error":{"message":"rate limited"}}`, http.StatusOK)

	_, err := repo.GetPrice(context.Background(), "moxie", "usd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestPriceRepo_GetPrice_MissingAsset(t *testing.T) {
	repo := newTestRepo(t, `{}`, http.StatusOK)

	_, err := repo.GetPrice(context.Background(), "moxie", "usd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))
}

func TestPriceRepo_GetPrice_HTTPError(t *testing.T) {
	repo := newTestRepo(t, `{"status":{"error_code":429}}`, http.StatusTooManyRequests)

	_, err := repo.GetPrice(context.Background(), "moxie", "usd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))
}
