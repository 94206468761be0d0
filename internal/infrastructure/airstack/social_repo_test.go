package airstack

import (
	"context"
	"encoding/json"
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
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) *SocialRepo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.AirstackConfig{
		URL:            srv.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	}
	logger := zap.NewNop()
	return NewSocialRepo(NewClient(cfg, logger), cfg, logger)
}

func TestSocialRepo_GetProfile(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "250772", req.Variables["userId"])

		_, _ = w.Write([]byte(`{"data":{"Socials":{"Social":[{
			"userId":"250772",
			"profileName":"chanzy10",
			"profileDisplayName":"Chanzy",
			"profileImage":"https://img/large.png",
			"fnames":["chanzy10"],
			"profileImageContentValue":{"image":{"extraSmall":"https://img/xs.png"}}
		}]}}}`))
	})

	profile, err := repo.GetProfile(context.Background(), 250772)
	require.NoError(t, err)
	assert.Equal(t, int64(250772), profile.FID)
	assert.Equal(t, "chanzy10", profile.ProfileName)
	assert.Equal(t, "Chanzy", profile.DisplayName)
	assert.Equal(t, "https://img/xs.png", profile.AvatarURL)
	assert.Equal(t, "chanzy10", profile.FName())
}

func TestSocialRepo_GetProfile_AvatarFallback(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Socials":{"Social":[{
			"profileName":"alice",
			"profileImage":"https://img/large.png",
			"profileImageContentValue":null
		}]}}}`))
	})

	profile, err := repo.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://img/large.png", profile.AvatarURL)
}

func TestSocialRepo_GetProfile_NotFound(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Socials":{"Social":null}}}`))
	})

	_, err := repo.GetProfile(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrProfileNotFound))
}

func TestSocialRepo_GetProfile_Unauthorized(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := repo.GetProfile(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))
	assert.False(t, errors.Is(err, repositories.ErrProfileNotFound))
}
