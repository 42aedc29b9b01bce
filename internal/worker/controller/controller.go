// Package controller 负责把解码出来的swap事件对账进数据库：
// 建池、刷新费率和流动性、落成交明细
package controller

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/chain"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/pricing"
	"dex-lens/pkg/spltoken"
	"dex-lens/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountFetcher 批量拉链上账户，不存在的位置为nil
type AccountFetcher interface {
	FetchAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*chain.AccountInfo, error)
}

// PriceSource 批量查U本位价格，允许部分缺失
type PriceSource interface {
	GetMultiplePrices(ctx context.Context, mintIDs []string) ([]pricing.Price, error)
}

// Controller 一个市场一个对账控制器
type Controller interface {
	Market() string
	ReconcilePairs(ctx context.Context, pairIDs []string) ([]*model.Pair, error)
	HandleSwaps(ctx context.Context, events []*decoder.Event) error
}

// base 四个市场共用的对账骨架
type base struct {
	market  string
	pairs   dao.PairsDAO
	swaps   dao.SwapsDAO
	mints   *MintController
	fetcher AccountFetcher
	prices  PriceSource
	store   *cache.Store
	logger  *zap.Logger
}

func newBase(market string, daos *dao.DAOManager, mints *MintController, fetcher AccountFetcher, prices PriceSource, store *cache.Store, logger *zap.Logger) base {
	return base{
		market:  market,
		pairs:   daos.PairsDAO,
		swaps:   daos.SwapsDAO,
		mints:   mints,
		fetcher: fetcher,
		prices:  prices,
		store:   store,
		logger:  logger,
	}
}

// createFunc 建池钩子，链上不存在的id静默跳过
type createFunc func(ctx context.Context, missing []string) ([]*model.Pair, error)

// reconcilePairs 对账骨架：查库、补建缺失的池子、刷新储备和流动性
func (b *base) reconcilePairs(ctx context.Context, pairIDs []string, create createFunc) ([]*model.Pair, error) {
	ids := utils.Dedup(pairIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	known, err := b.pairs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, pair := range known {
		knownSet[pair.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := knownSet[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		created, err := create(ctx, missing)
		if err != nil {
			return nil, err
		}
		known = append(known, created...)
	}

	if err := b.refreshLiquidity(ctx, known); err != nil {
		return nil, err
	}
	return known, nil
}

// reconcileCached 对账结果带60秒缓存，热门池子在TTL窗口内
// 不重复打链和数据库
func (b *base) reconcileCached(ctx context.Context, pairIDs []string, create createFunc) ([]*model.Pair, error) {
	return cache.Results(ctx, b.store, utils.PairCacheKey(b.market, ""), utils.Dedup(pairIDs),
		func(pair *model.Pair) string { return pair.ID },
		func(ctx context.Context, missing []string) ([]*model.Pair, error) {
			return b.reconcilePairs(ctx, missing, create)
		},
	)
}

// refreshLiquidity 重读vault余额和价格，重算储备与U本位流动性。
// 流动性 = Σ(储备 / 10^精度 × 价格)，缺价格的一侧按零计
func (b *base) refreshLiquidity(ctx context.Context, pairs []*model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	vaults := make([]solana.PublicKey, 0, len(pairs)*2)
	mintIDs := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		baseVault, err := solana.PublicKeyFromBase58(pair.BaseVault)
		if err != nil {
			return fmt.Errorf("pair %s base vault: %w", pair.ID, err)
		}
		quoteVault, err := solana.PublicKeyFromBase58(pair.QuoteVault)
		if err != nil {
			return fmt.Errorf("pair %s quote vault: %w", pair.ID, err)
		}
		vaults = append(vaults, baseVault, quoteVault)
		mintIDs = append(mintIDs, pair.BaseMintID, pair.QuoteMintID)
	}

	accounts, err := b.fetcher.FetchAccounts(ctx, vaults)
	if err != nil {
		return fmt.Errorf("fetch vault accounts: %w", err)
	}

	priceMap, err := b.priceMap(ctx, mintIDs)
	if err != nil {
		return err
	}

	for i, pair := range pairs {
		pair.BaseReserve = b.vaultReserve(accounts[2*i], pair.ID, pair.BaseMint, pair.BaseReserve)
		pair.QuoteReserve = b.vaultReserve(accounts[2*i+1], pair.ID, pair.QuoteMint, pair.QuoteReserve)
		pair.BaseReserveUsd = pair.BaseReserve.Mul(priceMap[pair.BaseMintID])
		pair.QuoteReserveUsd = pair.QuoteReserve.Mul(priceMap[pair.QuoteMintID])
		pair.Liquidity = pair.BaseReserveUsd.Add(pair.QuoteReserveUsd)
	}

	return b.pairs.UpdateReserves(ctx, pairs)
}

// vaultReserve 单侧储备，已按mint精度归一。vault账户拉不到时
// 保留上一次的值，避免脏读清零
func (b *base) vaultReserve(account *chain.AccountInfo, pairID string, mint *model.Mint, previous decimal.Decimal) decimal.Decimal {
	if account == nil {
		b.logger.Warn("vault account missing", zap.String("pair", pairID))
		return previous
	}

	token, err := spltoken.DecodeTokenAccount(account.Data)
	if err != nil {
		b.logger.Warn("vault account undecodable", zap.String("pair", pairID), zap.Error(err))
		return previous
	}

	var decimals uint8
	if mint != nil {
		decimals = mint.Decimals
	}
	return utils.AdjustUintDecimals(token.Amount, decimals)
}

// priceMap 批量查价并按mint索引，缺失的查不到键，取值得零
func (b *base) priceMap(ctx context.Context, mintIDs []string) (map[string]decimal.Decimal, error) {
	prices, err := b.prices.GetMultiplePrices(ctx, utils.Dedup(mintIDs))
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}

	priceMap := make(map[string]decimal.Decimal, len(prices))
	for _, price := range prices {
		priceMap[price.ID] = price.Price
	}
	return priceMap, nil
}

// swapView 各协议事件统一后的成交视图，金额是链上原始整数
type swapView struct {
	signature string
	pairID    string
	sell      bool
	amountIn  uint64
	amountOut uint64
	fee       uint64
}

// recordSwaps 落成交明细。事件引用的池子必须在本轮对账里出现，
// 否则说明上游逻辑坏了，直接报错
func (b *base) recordSwaps(ctx context.Context, views []swapView, create createFunc) error {
	if len(views) == 0 {
		return nil
	}

	pairIDs := make([]string, 0, len(views))
	for _, view := range views {
		pairIDs = append(pairIDs, view.pairID)
	}

	pairs, err := b.reconcileCached(ctx, pairIDs, create)
	if err != nil {
		return err
	}
	pairMap := make(map[string]*model.Pair, len(pairs))
	mintIDs := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		pairMap[pair.ID] = pair
		mintIDs = append(mintIDs, pair.BaseMintID, pair.QuoteMintID)
	}

	priceMap, err := b.priceMap(ctx, mintIDs)
	if err != nil {
		return err
	}

	swaps := make([]*model.Swap, 0, len(views))
	for _, view := range views {
		pair, ok := pairMap[view.pairID]
		if !ok {
			return fmt.Errorf("swap %s references unreconciled pair %s", view.signature, view.pairID)
		}
		swaps = append(swaps, buildSwap(view, pair, priceMap))
	}

	return b.swaps.BatchUpsert(ctx, swaps)
}

func buildSwap(view swapView, pair *model.Pair, priceMap map[string]decimal.Decimal) *model.Swap {
	var baseDecimals, quoteDecimals uint8
	if pair.BaseMint != nil {
		baseDecimals = pair.BaseMint.Decimals
	}
	if pair.QuoteMint != nil {
		quoteDecimals = pair.QuoteMint.Decimals
	}

	swap := &model.Swap{
		Signature: view.signature,
		PairID:    pair.ID,
		Market:    pair.Market,
		Tvl:       pair.Liquidity,
	}

	// 手续费从入金代币里扣，随方向换精度
	if view.sell {
		swap.Type = model.SwapTypeSell
		swap.BaseAmount = utils.AdjustUintDecimals(view.amountIn, baseDecimals)
		swap.QuoteAmount = utils.AdjustUintDecimals(view.amountOut, quoteDecimals)
		swap.Fee = utils.AdjustUintDecimals(view.fee, baseDecimals)
	} else {
		swap.Type = model.SwapTypeBuy
		swap.BaseAmount = utils.AdjustUintDecimals(view.amountOut, baseDecimals)
		swap.QuoteAmount = utils.AdjustUintDecimals(view.amountIn, quoteDecimals)
		swap.Fee = utils.AdjustUintDecimals(view.fee, quoteDecimals)
	}

	if swap.BaseAmount.IsPositive() {
		swap.Price = swap.QuoteAmount.Div(swap.BaseAmount)
	}

	basePrice := priceMap[pair.BaseMintID]
	quotePrice := priceMap[pair.QuoteMintID]
	swap.BaseAmountUsd = swap.BaseAmount.Mul(basePrice)
	swap.QuoteAmountUsd = swap.QuoteAmount.Mul(quotePrice)
	swap.PriceUsd = swap.Price.Mul(quotePrice)
	if view.sell {
		swap.FeeUsd = swap.Fee.Mul(basePrice)
	} else {
		swap.FeeUsd = swap.Fee.Mul(quotePrice)
	}

	return swap
}

// parseAddresses 批量解base58，坏地址跳过并告警
func (b *base) parseAddresses(ids []string) ([]solana.PublicKey, []string) {
	addresses := make([]solana.PublicKey, 0, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		address, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			b.logger.Warn("invalid pair address", zap.String("id", id), zap.Error(err))
			continue
		}
		addresses = append(addresses, address)
		valid = append(valid, id)
	}
	return addresses, valid
}

// pairName 展示名，base和quote的符号拼起来
func pairName(baseMint, quoteMint *model.Mint) string {
	var baseSymbol, quoteSymbol string
	if baseMint != nil {
		baseSymbol = baseMint.Symbol
	}
	if quoteMint != nil {
		quoteSymbol = quoteMint.Symbol
	}
	return baseSymbol + "/" + quoteSymbol
}

// tokenProgramOf mint所属的token程序，解析不出来按SPL token处理
func tokenProgramOf(mint *model.Mint) solana.PublicKey {
	if mint != nil {
		if program, err := solana.PublicKeyFromBase58(mint.Program); err == nil && !program.IsZero() {
			return program
		}
	}
	return solana.TokenProgramID
}

// insertRewardMints 奖励代币先补mint表再建关联
func (b *base) insertRewardMints(ctx context.Context, rewards []*model.RewardMint) error {
	if len(rewards) == 0 {
		return nil
	}

	mintIDs := make([]string, 0, len(rewards))
	for _, reward := range rewards {
		mintIDs = append(mintIDs, reward.MintID)
	}
	if _, err := b.mints.Resolve(ctx, mintIDs); err != nil {
		return err
	}

	return b.pairs.InsertRewardMints(ctx, rewards)
}
