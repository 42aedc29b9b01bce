package controller

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/meteora"
	"dex-lens/internal/worker/model"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DLMM家族动态费率的硬上限
var meteoraMaxFee = decimal.NewFromInt(10)

// MeteoraController Meteora DLMM市场的对账控制器
type MeteoraController struct {
	base
}

func NewMeteoraController(daos *dao.DAOManager, mints *MintController, fetcher AccountFetcher, prices PriceSource, store *cache.Store, logger *zap.Logger) *MeteoraController {
	return &MeteoraController{
		base: newBase(model.MarketMeteora, daos, mints, fetcher, prices, store, logger),
	}
}

func (c *MeteoraController) Market() string { return model.MarketMeteora }

// ReconcilePairs 见base.reconcilePairs
func (c *MeteoraController) ReconcilePairs(ctx context.Context, pairIDs []string) ([]*model.Pair, error) {
	return c.reconcilePairs(ctx, pairIDs, c.createPairs)
}

// HandleSwaps 消费管道里的swap事件
func (c *MeteoraController) HandleSwaps(ctx context.Context, events []*decoder.Event) error {
	views := make([]swapView, 0, len(events))
	for _, event := range events {
		swap, ok := event.Data.(*meteora.SwapEvent)
		if !ok {
			continue
		}
		views = append(views, swapView{
			signature: event.Signature,
			pairID:    swap.LbPair.String(),
			sell:      swap.SwapForY,
			amountIn:  swap.AmountIn,
			amountOut: swap.AmountOut,
			fee:       swap.Fee,
		})
	}
	return c.recordSwaps(ctx, views, c.createPairs)
}

// createPairs 从链上补建池子。Meteora的vault直接存在池子账户里
func (c *MeteoraController) createPairs(ctx context.Context, ids []string) ([]*model.Pair, error) {
	addresses, valid := c.parseAddresses(ids)
	if len(addresses) == 0 {
		return nil, nil
	}

	accounts, err := c.fetcher.FetchAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch meteora pairs: %w", err)
	}

	type poolEntry struct {
		id   string
		pool *meteora.LbPair
	}
	pools := make([]poolEntry, 0, len(accounts))
	var mintIDs []string
	for i, account := range accounts {
		if account == nil {
			continue
		}
		pool, err := meteora.DecodeLbPair(account.Data)
		if err != nil {
			c.logger.Warn("meteora lb pair undecodable", zap.String("pair", valid[i]), zap.Error(err))
			continue
		}
		pools = append(pools, poolEntry{id: valid[i], pool: pool})
		mintIDs = append(mintIDs, pool.TokenXMint.String(), pool.TokenYMint.String())
	}
	if len(pools) == 0 {
		return nil, nil
	}

	mintMap, err := c.mints.Resolve(ctx, mintIDs)
	if err != nil {
		return nil, err
	}

	pairs := make([]*model.Pair, 0, len(pools))
	var rewards []*model.RewardMint
	for _, entry := range pools {
		pool := entry.pool

		dynamicFee := meteora.DynamicFee(pool)
		extra, _ := sonic.Marshal(map[string]any{
			"base_factor":          pool.Parameters.BaseFactor,
			"variable_fee_control": pool.Parameters.VariableFeeControl,
			"protocol_share":       pool.Parameters.ProtocolShare,
			"active_id":            pool.ActiveID,
		})
		extraJSON := datatypes.JSON(extra)

		baseMint := mintMap[pool.TokenXMint.String()]
		quoteMint := mintMap[pool.TokenYMint.String()]
		pairs = append(pairs, &model.Pair{
			ID:          entry.id,
			Name:        pairName(baseMint, quoteMint),
			Market:      model.MarketMeteora,
			BaseMintID:  pool.TokenXMint.String(),
			QuoteMintID: pool.TokenYMint.String(),
			BaseVault:   pool.ReserveX.String(),
			QuoteVault:  pool.ReserveY.String(),
			BinStep:     pool.BinStep,
			BaseFee:     meteora.BaseFee(pool.BinStep, pool.Parameters.BaseFactor),
			MaxFee:      meteoraMaxFee,
			DynamicFee:  dynamicFee,
			ProtocolFee: meteora.ProtocolFee(dynamicFee, pool.Parameters.ProtocolShare),
			Extra:       &extraJSON,
			BaseMint:    baseMint,
			QuoteMint:   quoteMint,
		})

		for _, mint := range pool.RewardMints() {
			rewards = append(rewards, &model.RewardMint{PairID: entry.id, MintID: mint.String()})
		}
	}

	if err := c.pairs.BatchUpsert(ctx, pairs); err != nil {
		return nil, fmt.Errorf("upsert meteora pairs: %w", err)
	}
	if err := c.insertRewardMints(ctx, rewards); err != nil {
		return nil, fmt.Errorf("insert meteora reward mints: %w", err)
	}
	return pairs, nil
}
