package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dex-lens/internal/worker/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.PriceAPIConfig{
		BaseURL:   server.URL,
		RateLimit: 6000,
		Timeout:   5,
	}, nil, zap.NewNop())
}

func TestGetMultiplePrices(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v1/prices", r.URL.Path)

		var req priceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := priceResponse{}
		for _, id := range req.IDs {
			resp.Data = append(resp.Data, Price{ID: id, Price: decimal.RequireFromString("1.5")})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	prices, err := client.GetMultiplePrices(context.Background(), []string{"mint-a", "mint-b", "mint-a"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[0].Price.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, 1, requests)

	// 第二次命中缓存，不再打价格源
	prices, err = client.GetMultiplePrices(context.Background(), []string{"mint-a", "mint-b"})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.Equal(t, 1, requests)
}

func TestGetMultiplePricesToleratesPartialResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := priceResponse{Data: []Price{{ID: "mint-a", Price: decimal.NewFromInt(2)}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	prices, err := client.GetMultiplePrices(context.Background(), []string{"mint-a", "mint-unknown"})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "mint-a", prices[0].ID)
}

func TestGetMultiplePricesEmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not hit price source")
	})

	prices, err := client.GetMultiplePrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, prices)
}
