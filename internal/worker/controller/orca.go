package controller

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/orca"
	"dex-lens/internal/worker/model"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 自适应费率的硬上限，和DLMM家族一致
var orcaMaxFee = decimal.NewFromInt(10)

// OrcaController Orca Whirlpool市场的对账控制器
type OrcaController struct {
	base
}

func NewOrcaController(daos *dao.DAOManager, mints *MintController, fetcher AccountFetcher, prices PriceSource, store *cache.Store, logger *zap.Logger) *OrcaController {
	return &OrcaController{
		base: newBase(model.MarketOrca, daos, mints, fetcher, prices, store, logger),
	}
}

func (c *OrcaController) Market() string { return model.MarketOrca }

// ReconcilePairs 见base.reconcilePairs
func (c *OrcaController) ReconcilePairs(ctx context.Context, pairIDs []string) ([]*model.Pair, error) {
	return c.reconcilePairs(ctx, pairIDs, c.createPairs)
}

// HandleSwaps 消费管道里的traded事件。aToB即卖出base
func (c *OrcaController) HandleSwaps(ctx context.Context, events []*decoder.Event) error {
	views := make([]swapView, 0, len(events))
	for _, event := range events {
		swap, ok := event.Data.(*orca.SwapEvent)
		if !ok {
			continue
		}
		views = append(views, swapView{
			signature: event.Signature,
			pairID:    swap.Whirlpool.String(),
			sell:      swap.AToB,
			amountIn:  swap.InputAmount,
			amountOut: swap.OutputAmount,
			fee:       swap.LpFee,
		})
	}
	return c.recordSwaps(ctx, views, c.createPairs)
}

// createPairs 从链上补建池子。vault直接取whirlpool账户里的字段。
// 自适应费oracle是独立账户，这里不拉，动态费率等于基础费率
func (c *OrcaController) createPairs(ctx context.Context, ids []string) ([]*model.Pair, error) {
	addresses, valid := c.parseAddresses(ids)
	if len(addresses) == 0 {
		return nil, nil
	}

	accounts, err := c.fetcher.FetchAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch orca whirlpools: %w", err)
	}

	type poolEntry struct {
		id   string
		pool *orca.Whirlpool
	}
	pools := make([]poolEntry, 0, len(accounts))
	var mintIDs []string
	for i, account := range accounts {
		if account == nil {
			continue
		}
		pool, err := orca.DecodeWhirlpool(account.Data)
		if err != nil {
			c.logger.Warn("orca whirlpool undecodable", zap.String("pair", valid[i]), zap.Error(err))
			continue
		}
		pools = append(pools, poolEntry{id: valid[i], pool: pool})
		mintIDs = append(mintIDs, pool.TokenMintA.String(), pool.TokenMintB.String())
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

		baseFee := orca.BaseFee(pool.FeeRate)
		extra, _ := sonic.Marshal(map[string]any{
			"fee_rate":           pool.FeeRate,
			"protocol_fee_rate":  pool.ProtocolFeeRate,
			"tick_current_index": pool.TickCurrentIndex,
		})
		extraJSON := datatypes.JSON(extra)

		baseMint := mintMap[pool.TokenMintA.String()]
		quoteMint := mintMap[pool.TokenMintB.String()]
		pairs = append(pairs, &model.Pair{
			ID:          entry.id,
			Name:        pairName(baseMint, quoteMint),
			Market:      model.MarketOrca,
			BaseMintID:  pool.TokenMintA.String(),
			QuoteMintID: pool.TokenMintB.String(),
			BaseVault:   pool.TokenVaultA.String(),
			QuoteVault:  pool.TokenVaultB.String(),
			BinStep:     pool.TickSpacing,
			BaseFee:     baseFee,
			MaxFee:      orcaMaxFee,
			DynamicFee:  orca.DynamicFee(pool, 0, 0),
			ProtocolFee: orca.ProtocolFee(baseFee, pool.ProtocolFeeRate),
			Extra:       &extraJSON,
			BaseMint:    baseMint,
			QuoteMint:   quoteMint,
		})

		for _, mint := range pool.RewardMints() {
			rewards = append(rewards, &model.RewardMint{PairID: entry.id, MintID: mint.String()})
		}
	}

	if err := c.pairs.BatchUpsert(ctx, pairs); err != nil {
		return nil, fmt.Errorf("upsert orca whirlpools: %w", err)
	}
	if err := c.insertRewardMints(ctx, rewards); err != nil {
		return nil, fmt.Errorf("insert orca reward mints: %w", err)
	}
	return pairs, nil
}
