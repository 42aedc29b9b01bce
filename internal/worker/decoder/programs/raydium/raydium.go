// Package raydium 解析Raydium CLMM的池子和事件
package raydium

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID Raydium CLMM程序地址
var ProgramID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")

// RewardInfo 池子奖励配置，TokenMint为零值表示槽位未启用
type RewardInfo struct {
	RewardState   uint8
	OpenTime      uint64
	EndTime       uint64
	LastUpdate    uint64
	EmissionsX64  bin.Uint128
	RewardTotal   uint64
	RewardClaimed uint64
	TokenMint     solana.PublicKey
	TokenVault    solana.PublicKey
}

// PoolState Raydium CLMM池子账户。只声明到需要的字段为止
type PoolState struct {
	Bump           [1]uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationID  solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      bin.Uint128
	SqrtPriceX64   bin.Uint128
	TickCurrent    int32
	Padding        [4]uint8
	FeeGrowth0X64  bin.Uint128
	FeeGrowth1X64  bin.Uint128
	ProtocolFees0  uint64
	ProtocolFees1  uint64
	SwapInAmount0  bin.Uint128
	SwapOutAmount1 bin.Uint128
	SwapInAmount1  bin.Uint128
	SwapOutAmount0 bin.Uint128
	Status         uint8
	Padding1       [7]uint8
	RewardInfos    [3]RewardInfo
}

// AmmConfig CLMM费率配置账户，多个池子共享
type AmmConfig struct {
	Bump            uint8
	Index           uint16
	Owner           solana.PublicKey
	ProtocolFeeRate uint32
	TradeFeeRate    uint32
	TickSpacing     uint16
	FundFeeRate     uint32
}

// DecodePoolState 解析池子账户，头8字节是anchor账户discriminator
func DecodePoolState(data []byte) (*PoolState, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("raydium pool state account too short: %d", len(data))
	}

	var pool PoolState
	if err := bin.NewBorshDecoder(data[8:]).Decode(&pool); err != nil {
		return nil, fmt.Errorf("decode raydium pool state: %w", err)
	}
	return &pool, nil
}

// DecodeAmmConfig 解析费率配置账户
func DecodeAmmConfig(data []byte) (*AmmConfig, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("raydium amm config account too short: %d", len(data))
	}

	var config AmmConfig
	if err := bin.NewBorshDecoder(data[8:]).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode raydium amm config: %w", err)
	}
	return &config, nil
}

// RewardMints 已启用的奖励代币
func (p *PoolState) RewardMints() []solana.PublicKey {
	var mints []solana.PublicKey
	for _, info := range p.RewardInfos {
		if !info.TokenMint.IsZero() {
			mints = append(mints, info.TokenMint)
		}
	}
	return mints
}
