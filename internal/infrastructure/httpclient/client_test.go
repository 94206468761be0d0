package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

func newTestClient(opts ...Option) *Client {
	return New("test", time.Second, zap.NewNop(), opts...)
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := newTestClient(WithHeader("Authorization", "secret")).GetJSON(context.Background(), srv.URL, &out)

	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestClient_EmptyHeaderIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
	}))
	defer srv.Close()

	_, err := newTestClient(WithHeader("Authorization", "")).Get(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestClient_StatusErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "overloaded")
}

func TestClient_TransportErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient().Get(context.Background(), url)
	assert.True(t, errors.Is(err, repositories.ErrUpstream))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := newTestClient(WithRateLimit(0.001, 1))
	_, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, srv.URL)
	assert.Error(t, err)
}

func TestClient_GraphQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "subjectTokens")
		assert.Equal(t, "fid:3", req.Variables["symbol"])

		_, _ = w.Write([]byte(`{"data":{"name":"ok"}}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := newTestClient().GraphQL(context.Background(), srv.URL, "query { subjectTokens }",
		map[string]interface{}{"symbol": "fid:3"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
}

func TestClient_GraphQLErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"errors array", `{"errors":[{"message":"bad field"},{"message":"timeout"}]}`},
		{"null data", `{"data":null}`},
		{"not json", `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out map[string]interface{}
			err := newTestClient().GraphQL(context.Background(), srv.URL, "{ x }", nil, &out)

			require.Error(t, err)
			assert.True(t, errors.Is(err, repositories.ErrUpstream))
		})
	}
}

func TestGraphQLErrors_Message(t *testing.T) {
	err := GraphQLErrors{{Message: "a"}, {Message: "b"}}
	assert.True(t, strings.HasSuffix(err.Error(), "a; b"))
}
