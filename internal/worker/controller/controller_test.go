package controller

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"dex-lens/internal/worker/cache"
	"dex-lens/internal/worker/chain"
	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/orca"
	"dex-lens/internal/worker/decoder/programs/raydium"
	"dex-lens/internal/worker/decoder/programs/saros"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/pricing"
	"dex-lens/pkg/spltoken"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeFetcher struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*chain.AccountInfo
	calls    int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{accounts: make(map[solana.PublicKey]*chain.AccountInfo)}
}

func (f *fakeFetcher) put(address, owner solana.PublicKey, data []byte) {
	f.accounts[address] = &chain.AccountInfo{Address: address, Owner: owner, Data: data}
}

func (f *fakeFetcher) FetchAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*chain.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]*chain.AccountInfo, len(addresses))
	for i, address := range addresses {
		out[i] = f.accounts[address]
	}
	return out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePrices struct {
	prices map[string]decimal.Decimal
}

func (f *fakePrices) GetMultiplePrices(ctx context.Context, mintIDs []string) ([]pricing.Price, error) {
	var out []pricing.Price
	for _, id := range mintIDs {
		if price, ok := f.prices[id]; ok {
			out = append(out, pricing.Price{ID: id, Price: price})
		}
	}
	return out, nil
}

func setupControllerDB(t *testing.T) (*gorm.DB, *dao.DAOManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:ctl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Mint{}, &model.Pair{}, &model.RewardMint{}, &model.Swap{}))

	// 共享内存库多连接并发写会BUSY，收敛到一条连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db, dao.NewDAOManager(db)
}

func encodeMintAccount(t *testing.T, decimals uint8) []byte {
	t.Helper()
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000_000)
	data[44] = decimals
	return data
}

func encodeTokenAccount(t *testing.T, mint, owner solana.PublicKey, amount uint64) []byte {
	t.Helper()
	data := make([]byte, 165)
	copy(data[0:32], mint.Bytes())
	copy(data[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

func encodeMetadataAccount(t *testing.T, name, symbol, uri string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(4) // key
	buf.Write(make([]byte, 64))
	enc := bin.NewBorshEncoder(&buf)
	require.NoError(t, enc.Encode(name))
	require.NoError(t, enc.Encode(symbol))
	require.NoError(t, enc.Encode(uri))
	return buf.Bytes()
}

func encodeAccount(t *testing.T, value any) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(value))
	return buf.Bytes()
}

// sarosFixture 一个已在链上、还没入库的Saros池子
type sarosFixture struct {
	pairAddress solana.PublicKey
	mintX       solana.PublicKey
	mintY       solana.PublicKey
	fetcher     *fakeFetcher
	prices      *fakePrices
	controller  *SarosController
}

func newSarosFixture(t *testing.T, daos *dao.DAOManager) *sarosFixture {
	t.Helper()

	pairAddress := solana.NewWallet().PublicKey()
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()

	pool := &saros.Pair{
		BinStep:    1,
		TokenMintX: mintX,
		TokenMintY: mintY,
		StaticFeeParameters: saros.StaticFeeParameters{
			BaseFactor:         10000,
			VariableFeeControl: 40000,
			ProtocolShare:      2000,
		},
		DynamicFeeParameters: saros.DynamicFeeParameters{
			VolatilityAccumulator: 200,
		},
	}

	fetcher := newFakeFetcher()
	fetcher.put(pairAddress, saros.ProgramID, encodeAccount(t, pool))
	fetcher.put(mintX, solana.TokenProgramID, encodeMintAccount(t, 6))
	fetcher.put(mintY, solana.TokenProgramID, encodeMintAccount(t, 6))

	metaX, err := spltoken.MetadataAddress(mintX)
	require.NoError(t, err)
	metaY, err := spltoken.MetadataAddress(mintY)
	require.NoError(t, err)
	fetcher.put(metaX, spltoken.MetadataProgram, encodeMetadataAccount(t, "Token X", "TKX", "https://example.com/tkx.json"))
	fetcher.put(metaY, spltoken.MetadataProgram, encodeMetadataAccount(t, "Token Y", "TKY", "https://example.com/tky.json"))

	baseVault, err := spltoken.AssociatedTokenAddress(pairAddress, mintX, solana.TokenProgramID)
	require.NoError(t, err)
	quoteVault, err := spltoken.AssociatedTokenAddress(pairAddress, mintY, solana.TokenProgramID)
	require.NoError(t, err)
	fetcher.put(baseVault, solana.TokenProgramID, encodeTokenAccount(t, mintX, pairAddress, 300_000_000_000))
	fetcher.put(quoteVault, solana.TokenProgramID, encodeTokenAccount(t, mintY, pairAddress, 200_000_000_000))

	prices := &fakePrices{prices: map[string]decimal.Decimal{
		mintX.String(): decimal.NewFromInt(1),
		mintY.String(): decimal.NewFromInt(1),
	}}

	logger := zap.NewNop()
	mints := NewMintController(daos, fetcher, logger)
	store := cache.NewStore(nil, time.Minute, logger)
	controller := NewSarosController(daos, mints, fetcher, prices, store, logger)

	return &sarosFixture{
		pairAddress: pairAddress,
		mintX:       mintX,
		mintY:       mintY,
		fetcher:     fetcher,
		prices:      prices,
		controller:  controller,
	}
}

func TestSarosReconcilePairsCreatesPair(t *testing.T) {
	db, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)
	ctx := context.Background()

	pairs, err := fx.controller.ReconcilePairs(ctx, []string{fx.pairAddress.String()})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	assert.Equal(t, model.MarketSaros, pair.Market)
	assert.Equal(t, fx.mintX.String(), pair.BaseMintID)
	assert.Equal(t, fx.mintY.String(), pair.QuoteMintID)
	assert.Equal(t, "TKX/TKY", pair.Name)
	assert.True(t, pair.BaseFee.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, pair.MaxFee.Equal(pair.BaseFee))
	assert.True(t, pair.DynamicFee.GreaterThanOrEqual(decimal.RequireFromString("0.01")))
	assert.True(t, pair.ProtocolFee.GreaterThanOrEqual(decimal.RequireFromString("0.002")))

	// 储备和流动性来自vault余额和价格
	assert.True(t, pair.BaseReserve.Equal(decimal.NewFromInt(300000)))
	assert.True(t, pair.QuoteReserve.Equal(decimal.NewFromInt(200000)))
	assert.True(t, pair.BaseReserveUsd.Equal(decimal.NewFromInt(300000)))
	assert.True(t, pair.QuoteReserveUsd.Equal(decimal.NewFromInt(200000)))
	assert.True(t, pair.Liquidity.GreaterThanOrEqual(decimal.NewFromInt(450810)))

	// mint表也补齐了，metadata原文和同步时间一起落库
	var mintCount int64
	require.NoError(t, db.Model(&model.Mint{}).Count(&mintCount).Error)
	assert.Equal(t, int64(2), mintCount)

	var baseMint model.Mint
	require.NoError(t, db.First(&baseMint, "id = ?", fx.mintX.String()).Error)
	assert.Equal(t, "TKX", baseMint.Symbol)
	assert.False(t, baseMint.SyncAt.IsZero())
	require.NotNil(t, baseMint.Extra)
	assert.Contains(t, baseMint.Extra.String(), "tkx.json")

	// 再跑一遍幂等
	pairs, err = fx.controller.ReconcilePairs(ctx, []string{fx.pairAddress.String()})
	require.NoError(t, err)
	assert.Len(t, pairs, 1)

	var pairCount int64
	require.NoError(t, db.Model(&model.Pair{}).Count(&pairCount).Error)
	assert.Equal(t, int64(1), pairCount)
}

func TestSarosReconcilePairsConcurrentSamePool(t *testing.T) {
	db, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)
	ctx := context.Background()

	// 同一个新池子被两路同时对账，都要成功且只落一行
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.controller.ReconcilePairs(ctx, []string{fx.pairAddress.String()})
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var pairCount int64
	require.NoError(t, db.Model(&model.Pair{}).Count(&pairCount).Error)
	assert.Equal(t, int64(1), pairCount)

	var mintCount int64
	require.NoError(t, db.Model(&model.Mint{}).Count(&mintCount).Error)
	assert.Equal(t, int64(2), mintCount)
}

func TestSarosReconcilePairsSkipsUnknownPool(t *testing.T) {
	_, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)

	// 链上不存在的池子静默跳过，不报错
	pairs, err := fx.controller.ReconcilePairs(context.Background(), []string{
		fx.pairAddress.String(),
		solana.NewWallet().PublicKey().String(),
	})
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestSarosHandleSwapsRecordsSell(t *testing.T) {
	db, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)
	ctx := context.Background()

	event := &decoder.Event{
		Kind:      decoder.KindLog,
		Program:   saros.ProgramID,
		Name:      saros.SwapEventName,
		Signature: "sig-sell",
		Data: &saros.SwapEvent{
			Pair:      fx.pairAddress,
			SwapForY:  true,
			AmountIn:  815734551,
			AmountOut: 812000000,
			Fee:       81574,
		},
	}

	require.NoError(t, fx.controller.HandleSwaps(ctx, []*decoder.Event{event}))

	var swaps []*model.Swap
	require.NoError(t, db.Find(&swaps).Error)
	require.Len(t, swaps, 1)

	swap := swaps[0]
	assert.Equal(t, model.SwapTypeSell, swap.Type)
	assert.True(t, swap.BaseAmount.Equal(decimal.RequireFromString("815.734551")))
	assert.True(t, swap.Fee.Equal(decimal.RequireFromString("0.081574")))
	assert.True(t, swap.Tvl.GreaterThanOrEqual(decimal.NewFromInt(450810)))
	assert.True(t, swap.BaseAmountUsd.Equal(swap.BaseAmount))

	// 同一笔事件重放，还是一行
	require.NoError(t, fx.controller.HandleSwaps(ctx, []*decoder.Event{event}))
	var count int64
	require.NoError(t, db.Model(&model.Swap{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSarosHandleSwapsUnknownPairFailsLoudly(t *testing.T) {
	_, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)

	event := &decoder.Event{
		Signature: "sig-x",
		Data: &saros.SwapEvent{
			Pair:     solana.NewWallet().PublicKey(), // 链上也没有
			SwapForY: true,
			AmountIn: 1,
		},
	}

	err := fx.controller.HandleSwaps(context.Background(), []*decoder.Event{event})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreconciled pair")
}

func TestSarosHandleSwapsUsesCacheWindow(t *testing.T) {
	_, daos := setupControllerDB(t)
	fx := newSarosFixture(t, daos)
	ctx := context.Background()

	event := &decoder.Event{
		Signature: "sig-1",
		Data: &saros.SwapEvent{
			Pair:      fx.pairAddress,
			SwapForY:  true,
			AmountIn:  1_000_000,
			AmountOut: 990_000,
			Fee:       100,
		},
	}
	require.NoError(t, fx.controller.HandleSwaps(ctx, []*decoder.Event{event}))
	callsAfterFirst := fx.fetcher.callCount()

	// TTL窗口内第二笔同池成交不再对账
	event2 := &decoder.Event{
		Signature: "sig-2",
		Data: &saros.SwapEvent{
			Pair:      fx.pairAddress,
			SwapForY:  false,
			AmountIn:  500_000,
			AmountOut: 495_000,
			Fee:       50,
		},
	}
	require.NoError(t, fx.controller.HandleSwaps(ctx, []*decoder.Event{event2}))
	assert.Equal(t, callsAfterFirst, fx.fetcher.callCount())
}

func TestRaydiumHandleSwapsRecordsTransferFee(t *testing.T) {
	db, daos := setupControllerDB(t)
	ctx := context.Background()

	poolAddress := solana.NewWallet().PublicKey()
	ammConfig := solana.NewWallet().PublicKey()
	mint0 := solana.NewWallet().PublicKey()
	mint1 := solana.NewWallet().PublicKey()
	vault0 := solana.NewWallet().PublicKey()
	vault1 := solana.NewWallet().PublicKey()

	pool := &raydium.PoolState{
		AmmConfig:   ammConfig,
		TokenMint0:  mint0,
		TokenMint1:  mint1,
		TokenVault0: vault0,
		TokenVault1: vault1,
		TickSpacing: 60,
	}
	config := &raydium.AmmConfig{
		TradeFeeRate:    2500,
		ProtocolFeeRate: 120000,
	}

	fetcher := newFakeFetcher()
	fetcher.put(poolAddress, raydium.ProgramID, encodeAccount(t, pool))
	fetcher.put(ammConfig, raydium.ProgramID, encodeAccount(t, config))
	fetcher.put(mint0, solana.TokenProgramID, encodeMintAccount(t, 9))
	fetcher.put(mint1, solana.TokenProgramID, encodeMintAccount(t, 6))
	fetcher.put(vault0, solana.TokenProgramID, encodeTokenAccount(t, mint0, poolAddress, 10_000_000_000))
	fetcher.put(vault1, solana.TokenProgramID, encodeTokenAccount(t, mint1, poolAddress, 50_000_000))

	prices := &fakePrices{prices: map[string]decimal.Decimal{
		mint0.String(): decimal.NewFromInt(2),
		mint1.String(): decimal.NewFromInt(1),
	}}

	logger := zap.NewNop()
	store := cache.NewStore(nil, time.Minute, logger)
	controller := NewRaydiumController(daos, NewMintController(daos, fetcher, logger), fetcher, prices, store, logger)

	// token0带transfer fee，事件里的amount0是含税全额
	event := &decoder.Event{
		Signature: "sig-clmm",
		Data: &raydium.SwapEvent{
			PoolState:    poolAddress,
			ZeroForOne:   true,
			Amount0:      3_000_000_000,
			TransferFee0: 1_500_000,
			Amount1:      5_900_000,
		},
	}
	require.NoError(t, controller.HandleSwaps(ctx, []*decoder.Event{event}))

	var swaps []*model.Swap
	require.NoError(t, db.Find(&swaps).Error)
	require.Len(t, swaps, 1)

	swap := swaps[0]
	assert.Equal(t, model.SwapTypeSell, swap.Type)
	assert.True(t, swap.BaseAmount.Equal(decimal.NewFromInt(3)))
	assert.True(t, swap.QuoteAmount.Equal(decimal.RequireFromString("5.9")))
	assert.True(t, swap.Fee.Equal(decimal.RequireFromString("0.0015")))

	var pair model.Pair
	require.NoError(t, db.First(&pair, "id = ?", poolAddress.String()).Error)
	assert.True(t, pair.BaseFee.Equal(decimal.RequireFromString("0.0025")))
	assert.True(t, pair.MaxFee.Equal(pair.BaseFee))
	assert.True(t, pair.DynamicFee.Equal(pair.BaseFee))
	assert.True(t, pair.ProtocolFee.Equal(decimal.RequireFromString("0.0003")))
	assert.True(t, pair.Liquidity.Equal(decimal.NewFromInt(70)))
}

func TestOrcaHandleSwapsBuyDirection(t *testing.T) {
	db, daos := setupControllerDB(t)
	ctx := context.Background()

	poolAddress := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	vaultA := solana.NewWallet().PublicKey()
	vaultB := solana.NewWallet().PublicKey()

	pool := &orca.Whirlpool{
		TickSpacing:     4,
		FeeRate:         400,
		ProtocolFeeRate: 300,
		TokenMintA:      mintA,
		TokenVaultA:     vaultA,
		TokenMintB:      mintB,
		TokenVaultB:     vaultB,
	}

	fetcher := newFakeFetcher()
	fetcher.put(poolAddress, orca.ProgramID, encodeAccount(t, pool))
	fetcher.put(mintA, solana.TokenProgramID, encodeMintAccount(t, 9))
	fetcher.put(mintB, solana.TokenProgramID, encodeMintAccount(t, 6))
	fetcher.put(vaultA, solana.TokenProgramID, encodeTokenAccount(t, mintA, poolAddress, 5_000_000_000))
	fetcher.put(vaultB, solana.TokenProgramID, encodeTokenAccount(t, mintB, poolAddress, 900_000_000))

	prices := &fakePrices{prices: map[string]decimal.Decimal{
		mintB.String(): decimal.NewFromInt(1),
		// mintA没有价格，流动性按零计
	}}

	logger := zap.NewNop()
	store := cache.NewStore(nil, time.Minute, logger)
	controller := NewOrcaController(daos, NewMintController(daos, fetcher, logger), fetcher, prices, store, logger)

	event := &decoder.Event{
		Signature: "sig-buy",
		Data: &orca.SwapEvent{
			Whirlpool:    poolAddress,
			AToB:         false, // quote换base，买入
			InputAmount:  5_000_000,
			OutputAmount: 1_250_000_000,
			LpFee:        1_261_500,
		},
	}
	require.NoError(t, controller.HandleSwaps(ctx, []*decoder.Event{event}))

	var swaps []*model.Swap
	require.NoError(t, db.Find(&swaps).Error)
	require.Len(t, swaps, 1)

	swap := swaps[0]
	assert.Equal(t, model.SwapTypeBuy, swap.Type)
	assert.True(t, swap.BaseAmount.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, swap.QuoteAmount.Equal(decimal.NewFromInt(5)))
	assert.True(t, swap.Fee.Equal(decimal.RequireFromString("1.2615")))
	assert.True(t, swap.Price.Equal(decimal.NewFromInt(4)))
	assert.True(t, swap.PriceUsd.Equal(decimal.NewFromInt(4)))

	// base侧没价格，流动性只数quote侧
	var pair model.Pair
	require.NoError(t, db.First(&pair, "id = ?", poolAddress.String()).Error)
	assert.True(t, pair.Liquidity.Equal(decimal.NewFromInt(900)))
	assert.True(t, pair.BaseReserveUsd.IsZero())
	assert.True(t, pair.QuoteReserveUsd.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, vaultA.String(), pair.BaseVault)
	assert.True(t, pair.BaseFee.Equal(decimal.RequireFromString("0.0004")))
	assert.True(t, pair.DynamicFee.Equal(pair.BaseFee))
	assert.True(t, pair.MaxFee.Equal(decimal.NewFromInt(10)))
}
