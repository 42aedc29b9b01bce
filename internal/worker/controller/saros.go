package controller

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/saros"
	"dex-lens/internal/worker/model"
	"dex-lens/pkg/spltoken"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SarosController Saros DLMM市场的对账控制器
type SarosController struct {
	base
}

func NewSarosController(daos *dao.DAOManager, mints *MintController, fetcher AccountFetcher, prices PriceSource, store *cache.Store, logger *zap.Logger) *SarosController {
	return &SarosController{
		base: newBase(model.MarketSaros, daos, mints, fetcher, prices, store, logger),
	}
}

func (c *SarosController) Market() string { return model.MarketSaros }

// ReconcilePairs 见base.reconcilePairs
func (c *SarosController) ReconcilePairs(ctx context.Context, pairIDs []string) ([]*model.Pair, error) {
	return c.reconcilePairs(ctx, pairIDs, c.createPairs)
}

// HandleSwaps 消费管道里的binSwapEvent
func (c *SarosController) HandleSwaps(ctx context.Context, events []*decoder.Event) error {
	views := make([]swapView, 0, len(events))
	for _, event := range events {
		swap, ok := event.Data.(*saros.SwapEvent)
		if !ok {
			continue
		}
		views = append(views, swapView{
			signature: event.Signature,
			pairID:    swap.Pair.String(),
			sell:      swap.SwapForY,
			amountIn:  swap.AmountIn,
			amountOut: swap.AmountOut,
			fee:       swap.Fee,
		})
	}
	return c.recordSwaps(ctx, views, c.createPairs)
}

// createPairs 从链上补建池子。Saros的vault是池子对两个mint的ATA
func (c *SarosController) createPairs(ctx context.Context, ids []string) ([]*model.Pair, error) {
	addresses, valid := c.parseAddresses(ids)
	if len(addresses) == 0 {
		return nil, nil
	}

	accounts, err := c.fetcher.FetchAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch saros pairs: %w", err)
	}

	type poolEntry struct {
		id      string
		address solana.PublicKey
		pool    *saros.Pair
	}
	pools := make([]poolEntry, 0, len(accounts))
	var mintIDs []string
	for i, account := range accounts {
		if account == nil {
			// 链上还没有这个池子，不算错误
			continue
		}
		pool, err := saros.DecodePair(account.Data)
		if err != nil {
			c.logger.Warn("saros pair undecodable", zap.String("pair", valid[i]), zap.Error(err))
			continue
		}
		pools = append(pools, poolEntry{id: valid[i], address: addresses[i], pool: pool})
		mintIDs = append(mintIDs, pool.TokenMintX.String(), pool.TokenMintY.String())
	}
	if len(pools) == 0 {
		return nil, nil
	}

	mintMap, err := c.mints.Resolve(ctx, mintIDs)
	if err != nil {
		return nil, err
	}

	pairs := make([]*model.Pair, 0, len(pools))
	for _, entry := range pools {
		pool := entry.pool
		baseMint := mintMap[pool.TokenMintX.String()]
		quoteMint := mintMap[pool.TokenMintY.String()]

		baseVault, err := spltoken.AssociatedTokenAddress(entry.address, pool.TokenMintX, tokenProgramOf(baseMint))
		if err != nil {
			return nil, fmt.Errorf("saros pair %s base vault: %w", entry.id, err)
		}
		quoteVault, err := spltoken.AssociatedTokenAddress(entry.address, pool.TokenMintY, tokenProgramOf(quoteMint))
		if err != nil {
			return nil, fmt.Errorf("saros pair %s quote vault: %w", entry.id, err)
		}

		baseFee := saros.BaseFee(pool.BinStep, pool.StaticFeeParameters.BaseFactor)
		dynamicFee := saros.DynamicFee(pool)
		extra, _ := sonic.Marshal(map[string]any{
			"base_factor":          pool.StaticFeeParameters.BaseFactor,
			"variable_fee_control": pool.StaticFeeParameters.VariableFeeControl,
			"protocol_share":       pool.StaticFeeParameters.ProtocolShare,
			"active_id":            pool.ActiveID,
		})
		extraJSON := datatypes.JSON(extra)

		pairs = append(pairs, &model.Pair{
			ID:          entry.id,
			Name:        pairName(baseMint, quoteMint),
			Market:      model.MarketSaros,
			BaseMintID:  pool.TokenMintX.String(),
			QuoteMintID: pool.TokenMintY.String(),
			BaseVault:   baseVault.String(),
			QuoteVault:  quoteVault.String(),
			BinStep:     uint16(pool.BinStep),
			BaseFee:     baseFee,
			MaxFee:      baseFee,
			DynamicFee:  dynamicFee,
			ProtocolFee: saros.ProtocolFee(dynamicFee, pool.StaticFeeParameters.ProtocolShare),
			Extra:       &extraJSON,
			BaseMint:    baseMint,
			QuoteMint:   quoteMint,
		})
	}

	if err := c.pairs.BatchUpsert(ctx, pairs); err != nil {
		return nil, fmt.Errorf("upsert saros pairs: %w", err)
	}
	return pairs, nil
}
