package controller

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/raydium"
	"dex-lens/internal/worker/model"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RaydiumController Raydium CLMM市场的对账控制器
type RaydiumController struct {
	base
}

func NewRaydiumController(daos *dao.DAOManager, mints *MintController, fetcher AccountFetcher, prices PriceSource, store *cache.Store, logger *zap.Logger) *RaydiumController {
	return &RaydiumController{
		base: newBase(model.MarketRaydium, daos, mints, fetcher, prices, store, logger),
	}
}

func (c *RaydiumController) Market() string { return model.MarketRaydium }

// ReconcilePairs 见base.reconcilePairs
func (c *RaydiumController) ReconcilePairs(ctx context.Context, pairIDs []string) ([]*model.Pair, error) {
	return c.reconcilePairs(ctx, pairIDs, c.createPairs)
}

// HandleSwaps 消费管道里的swapEvent。zeroForOne即卖出token0
func (c *RaydiumController) HandleSwaps(ctx context.Context, events []*decoder.Event) error {
	views := make([]swapView, 0, len(events))
	for _, event := range events {
		swap, ok := event.Data.(*raydium.SwapEvent)
		if !ok {
			continue
		}
		view := swapView{
			signature: event.Signature,
			pairID:    swap.PoolState.String(),
			sell:      swap.ZeroForOne,
			// 事件不带LP手续费字段，记token0侧的transfer fee
			fee: swap.TransferFee0,
		}
		if swap.ZeroForOne {
			view.amountIn = swap.Amount0
			view.amountOut = swap.Amount1
		} else {
			view.amountIn = swap.Amount1
			view.amountOut = swap.Amount0
		}
		views = append(views, view)
	}
	return c.recordSwaps(ctx, views, c.createPairs)
}

// createPairs 从链上补建池子。费率放在池子指向的AmmConfig账户上，
// 拉完池子再补一轮config
func (c *RaydiumController) createPairs(ctx context.Context, ids []string) ([]*model.Pair, error) {
	addresses, valid := c.parseAddresses(ids)
	if len(addresses) == 0 {
		return nil, nil
	}

	accounts, err := c.fetcher.FetchAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch raydium pools: %w", err)
	}

	type poolEntry struct {
		id   string
		pool *raydium.PoolState
	}
	pools := make([]poolEntry, 0, len(accounts))
	var mintIDs []string
	var configAddresses []solana.PublicKey
	configIndex := make(map[solana.PublicKey]int)
	for i, account := range accounts {
		if account == nil {
			continue
		}
		pool, err := raydium.DecodePoolState(account.Data)
		if err != nil {
			c.logger.Warn("raydium pool state undecodable", zap.String("pair", valid[i]), zap.Error(err))
			continue
		}
		pools = append(pools, poolEntry{id: valid[i], pool: pool})
		mintIDs = append(mintIDs, pool.TokenMint0.String(), pool.TokenMint1.String())
		if _, ok := configIndex[pool.AmmConfig]; !ok {
			configIndex[pool.AmmConfig] = len(configAddresses)
			configAddresses = append(configAddresses, pool.AmmConfig)
		}
	}
	if len(pools) == 0 {
		return nil, nil
	}

	configAccounts, err := c.fetcher.FetchAccounts(ctx, configAddresses)
	if err != nil {
		return nil, fmt.Errorf("fetch raydium amm configs: %w", err)
	}
	configs := make(map[solana.PublicKey]*raydium.AmmConfig, len(configAddresses))
	for address, i := range configIndex {
		if configAccounts[i] == nil {
			c.logger.Warn("raydium amm config missing", zap.String("config", address.String()))
			continue
		}
		config, err := raydium.DecodeAmmConfig(configAccounts[i].Data)
		if err != nil {
			c.logger.Warn("raydium amm config undecodable", zap.String("config", address.String()), zap.Error(err))
			continue
		}
		configs[address] = config
	}

	mintMap, err := c.mints.Resolve(ctx, mintIDs)
	if err != nil {
		return nil, err
	}

	pairs := make([]*model.Pair, 0, len(pools))
	var rewards []*model.RewardMint
	for _, entry := range pools {
		pool := entry.pool

		baseMint := mintMap[pool.TokenMint0.String()]
		quoteMint := mintMap[pool.TokenMint1.String()]
		pair := &model.Pair{
			ID:          entry.id,
			Name:        pairName(baseMint, quoteMint),
			Market:      model.MarketRaydium,
			BaseMintID:  pool.TokenMint0.String(),
			QuoteMintID: pool.TokenMint1.String(),
			BaseVault:   pool.TokenVault0.String(),
			QuoteVault:  pool.TokenVault1.String(),
			BinStep:     pool.TickSpacing,
			BaseMint:    baseMint,
			QuoteMint:   quoteMint,
		}

		if config, ok := configs[pool.AmmConfig]; ok {
			pair.BaseFee = raydium.BaseFee(config.TradeFeeRate)
			// CLMM没有波动费，费率上限就是基础费率
			pair.MaxFee = pair.BaseFee
			pair.DynamicFee = raydium.DynamicFee(config)
			pair.ProtocolFee = raydium.ProtocolFee(pair.BaseFee, config.ProtocolFeeRate)
		}

		extra, _ := sonic.Marshal(map[string]any{
			"amm_config":   pool.AmmConfig.String(),
			"tick_current": pool.TickCurrent,
		})
		extraJSON := datatypes.JSON(extra)
		pair.Extra = &extraJSON

		pairs = append(pairs, pair)
		for _, mint := range pool.RewardMints() {
			rewards = append(rewards, &model.RewardMint{PairID: entry.id, MintID: mint.String()})
		}
	}

	if err := c.pairs.BatchUpsert(ctx, pairs); err != nil {
		return nil, fmt.Errorf("upsert raydium pools: %w", err)
	}
	if err := c.insertRewardMints(ctx, rewards); err != nil {
		return nil, fmt.Errorf("insert raydium reward mints: %w", err)
	}
	return pairs, nil
}
