package raydium

import (
	"bytes"
	"encoding/base64"
	"testing"

	"dex-lens/internal/worker/decoder"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFees(t *testing.T) {
	config := &AmmConfig{TradeFeeRate: 2500, ProtocolFeeRate: 120000}

	base := BaseFee(config.TradeFeeRate)
	assert.True(t, base.Equal(decimal.RequireFromString("0.0025")))

	// 没有波动费分量，动态费率恒等于基础费率
	assert.True(t, DynamicFee(config).Equal(base))

	protocol := ProtocolFee(base, config.ProtocolFeeRate)
	assert.True(t, protocol.Equal(decimal.RequireFromString("0.0003")))
}

func TestLogProcessorDecodesSwapEvent(t *testing.T) {
	event := &SwapEvent{
		PoolState:     solana.NewWallet().PublicKey(),
		Sender:        solana.NewWallet().PublicKey(),
		TokenAccount0: solana.NewWallet().PublicKey(),
		TokenAccount1: solana.NewWallet().PublicKey(),
		Amount0:       2_000_000,
		TransferFee0:  0,
		Amount1:       1_995_000,
		TransferFee1:  0,
		ZeroForOne:    true,
		SqrtPriceX64:  bin.Uint128{Lo: 18446744073709551615},
		Liquidity:     bin.Uint128{Lo: 777},
		Tick:          -32,
	}

	var buf bytes.Buffer
	buf.Write(swapEventDiscriminator)
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(event))

	tx := &decoder.Transaction{
		Signature: "sig-1",
		Logs:      []string{"Program data: " + base64.StdEncoding.EncodeToString(buf.Bytes())},
	}

	events, err := LogProcessor{}.DecodeLogs(tx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	decoded := events[0].Data.(*SwapEvent)
	assert.Equal(t, event.PoolState, decoded.PoolState)
	assert.Equal(t, uint64(2_000_000), decoded.Amount0)
	assert.Equal(t, uint64(1_995_000), decoded.Amount1)
	assert.True(t, decoded.ZeroForOne)
	assert.Equal(t, uint64(777), decoded.Liquidity.Lo)
	assert.Equal(t, int32(-32), decoded.Tick)
}

func TestInstructionProcessorDecodesEventCPI(t *testing.T) {
	event := &SwapEvent{
		PoolState:  solana.NewWallet().PublicKey(),
		ZeroForOne: false,
		Amount0:    11,
		Amount1:    13,
	}

	var buf bytes.Buffer
	buf.Write(decoder.EventCPIDiscriminator)
	buf.Write(swapEventDiscriminator)
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(event))

	events, err := InstructionProcessor{}.DecodeInstruction(
		&decoder.Transaction{Signature: "sig-1"},
		&decoder.NestedInstruction{Instruction: decoder.Instruction{ProgramID: ProgramID, Data: buf.Bytes()}},
	)
	require.NoError(t, err)
	require.Len(t, events, 1)

	decoded := events[0].Data.(*SwapEvent)
	assert.Equal(t, event.PoolState, decoded.PoolState)
	assert.False(t, decoded.ZeroForOne)
}

func TestDecodePoolStateRoundTrip(t *testing.T) {
	rewardMint := solana.NewWallet().PublicKey()
	pool := &PoolState{
		AmmConfig:     solana.NewWallet().PublicKey(),
		TokenMint0:    solana.NewWallet().PublicKey(),
		TokenMint1:    solana.NewWallet().PublicKey(),
		TokenVault0:   solana.NewWallet().PublicKey(),
		TokenVault1:   solana.NewWallet().PublicKey(),
		MintDecimals0: 9,
		MintDecimals1: 6,
		TickSpacing:   60,
		Liquidity:     bin.Uint128{Lo: 42},
		TickCurrent:   105,
	}
	pool.RewardInfos[2].TokenMint = rewardMint

	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(pool))

	decoded, err := DecodePoolState(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pool.AmmConfig, decoded.AmmConfig)
	assert.Equal(t, pool.TokenVault0, decoded.TokenVault0)
	assert.Equal(t, pool.TokenVault1, decoded.TokenVault1)
	assert.Equal(t, uint8(9), decoded.MintDecimals0)
	assert.Equal(t, uint8(6), decoded.MintDecimals1)
	assert.Equal(t, uint16(60), decoded.TickSpacing)
	assert.Equal(t, int32(105), decoded.TickCurrent)
	assert.Equal(t, []solana.PublicKey{rewardMint}, decoded.RewardMints())
}

func TestDecodeAmmConfigRoundTrip(t *testing.T) {
	config := &AmmConfig{
		Index:           3,
		Owner:           solana.NewWallet().PublicKey(),
		ProtocolFeeRate: 120000,
		TradeFeeRate:    2500,
		TickSpacing:     60,
		FundFeeRate:     40000,
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(config))

	decoded, err := DecodeAmmConfig(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, config, decoded)
}
