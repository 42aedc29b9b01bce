// Package pricing 批量查询代币U本位价格
package pricing

import (
	"context"
	"time"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/config"
	"dex-lens/pkg/httpclient"
	"dex-lens/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 价格变化快，缓存只留一分钟
const priceCacheTTL = time.Minute

// Price 单个代币的报价
type Price struct {
	ID    string          `json:"id"`
	Price decimal.Decimal `json:"price"`
}

type priceRequest struct {
	IDs []string `json:"ids"`
}

type priceResponse struct {
	Data []Price `json:"data"`
}

// Client 价格客户端，带两级缓存
type Client struct {
	http    *httpclient.HTTPClient
	store   *cache.Store
	baseURL string
	logger  *zap.Logger
}

func NewClient(cfg config.PriceAPIConfig, rdb *redis.Client, logger *zap.Logger) *Client {
	httpClient := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
		RateLimit: cfg.RateLimit,
		XApiKey:   cfg.APIKey,
	}, logger)

	return &Client{
		http:    httpClient,
		store:   cache.NewStore(rdb, priceCacheTTL, logger),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// GetMultiplePrices 批量查价。价格源没有报价的代币不在返回里，
// 调用方自行按零处理
func (c *Client) GetMultiplePrices(ctx context.Context, mintIDs []string) ([]Price, error) {
	ids := utils.Dedup(mintIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	return cache.Results(ctx, c.store, utils.PriceCacheKey(""), ids,
		func(p Price) string { return p.ID },
		c.fetchPrices,
	)
}

func (c *Client) fetchPrices(ctx context.Context, missing []string) ([]Price, error) {
	var resp priceResponse
	err := c.http.PostJSON(ctx, c.baseURL+"/v1/prices", priceRequest{IDs: missing}, nil, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) < len(missing) {
		c.logger.Debug("price source returned partial results",
			zap.Int("requested", len(missing)), zap.Int("returned", len(resp.Data)))
	}
	return resp.Data, nil
}
