package orca

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

func TestBaseFee(t *testing.T) {
	// tickSpacing=4, feeRate=400 → 0.04%
	assert.True(t, BaseFee(400).Equal(decimal.RequireFromString("0.0004")))
}

func TestDynamicFeeWithoutAdaptiveOracle(t *testing.T) {
	pool := &Whirlpool{TickSpacing: 4, FeeRate: 400}
	assert.True(t, DynamicFee(pool, 99999, 0).Equal(BaseFee(400)))
}

func TestDynamicFeeWithAdaptiveComponent(t *testing.T) {
	pool := &Whirlpool{TickSpacing: 4, FeeRate: 400}
	fee := DynamicFee(pool, 30000, 1500)
	assert.True(t, fee.GreaterThan(BaseFee(400)))
	assert.True(t, fee.Equal(BaseFee(400).Add(VariableFee(4, 30000, 1500))))
}

func TestProtocolFee(t *testing.T) {
	// protocolFeeRate=300 → 3%的基础费率
	got := ProtocolFee(BaseFee(400), 300)
	assert.True(t, got.Equal(decimal.RequireFromString("0.000012")))
}

func TestLogProcessorDecodesTradedEvent(t *testing.T) {
	event := &SwapEvent{
		Whirlpool:     solana.NewWallet().PublicKey(),
		AToB:          false,
		PreSqrtPrice:  bin.Uint128{Lo: 79228162514264337},
		PostSqrtPrice: bin.Uint128{Lo: 79228162514264999},
		InputAmount:   5_000_000,
		OutputAmount:  1_261_500,
		LpFee:         12_615,
		ProtocolFee:   378,
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
	assert.Equal(t, SwapEventName, events[0].Name)

	decoded := events[0].Data.(*SwapEvent)
	assert.Equal(t, event.Whirlpool, decoded.Whirlpool)
	assert.False(t, decoded.AToB)
	assert.Equal(t, uint64(79228162514264337), decoded.PreSqrtPrice.Lo)
	assert.Equal(t, uint64(5_000_000), decoded.InputAmount)
	assert.Equal(t, uint64(1_261_500), decoded.OutputAmount)
	assert.Equal(t, uint64(12_615), decoded.LpFee)
}

func TestInstructionProcessorDecodesEventCPI(t *testing.T) {
	event := &SwapEvent{
		Whirlpool:   solana.NewWallet().PublicKey(),
		AToB:        true,
		InputAmount: 7,
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
	assert.Equal(t, event.Whirlpool, decoded.Whirlpool)
	assert.True(t, decoded.AToB)
}

func TestDecodeWhirlpoolRoundTrip(t *testing.T) {
	rewardMint := solana.NewWallet().PublicKey()
	pool := &Whirlpool{
		WhirlpoolsConfig: solana.NewWallet().PublicKey(),
		TickSpacing:      4,
		FeeRate:          400,
		ProtocolFeeRate:  300,
		Liquidity:        bin.Uint128{Lo: 123456789},
		SqrtPrice:        bin.Uint128{Lo: 79228162514264337},
		TickCurrentIndex: -443636,
		TokenMintA:       solana.NewWallet().PublicKey(),
		TokenVaultA:      solana.NewWallet().PublicKey(),
		TokenMintB:       solana.NewWallet().PublicKey(),
		TokenVaultB:      solana.NewWallet().PublicKey(),
	}
	pool.RewardInfos[1].Mint = rewardMint

	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(pool))

	decoded, err := DecodeWhirlpool(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pool.TokenMintA, decoded.TokenMintA)
	assert.Equal(t, pool.TokenVaultA, decoded.TokenVaultA)
	assert.Equal(t, pool.TokenMintB, decoded.TokenMintB)
	assert.Equal(t, pool.TokenVaultB, decoded.TokenVaultB)
	assert.Equal(t, uint16(4), decoded.TickSpacing)
	assert.Equal(t, uint16(400), decoded.FeeRate)
	assert.Equal(t, uint16(300), decoded.ProtocolFeeRate)
	assert.Equal(t, int32(-443636), decoded.TickCurrentIndex)
	assert.Equal(t, uint64(123456789), decoded.Liquidity.Lo)
	assert.Equal(t, []solana.PublicKey{rewardMint}, decoded.RewardMints())
}
