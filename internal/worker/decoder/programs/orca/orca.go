// Package orca 解析Orca Whirlpool的池子和事件
package orca

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID Orca Whirlpool程序地址
var ProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

// RewardInfo 池子奖励配置，Mint为零值表示槽位未启用
type RewardInfo struct {
	Mint                  solana.PublicKey
	Vault                 solana.PublicKey
	Authority             solana.PublicKey
	EmissionsPerSecondX64 bin.Uint128
	GrowthGlobalX64       bin.Uint128
}

// Whirlpool Orca池子账户
type Whirlpool struct {
	WhirlpoolsConfig solana.PublicKey
	WhirlpoolBump    [1]uint8
	TickSpacing      uint16
	TickSpacingSeed  [2]uint8
	FeeRate          uint16
	ProtocolFeeRate  uint16
	Liquidity        bin.Uint128
	SqrtPrice        bin.Uint128
	TickCurrentIndex int32
	ProtocolFeeOwedA uint64
	ProtocolFeeOwedB uint64
	TokenMintA       solana.PublicKey
	TokenVaultA      solana.PublicKey
	FeeGrowthGlobalA bin.Uint128
	TokenMintB       solana.PublicKey
	TokenVaultB      solana.PublicKey
	FeeGrowthGlobalB bin.Uint128
	RewardLastUpdate uint64
	RewardInfos      [3]RewardInfo
}

// DecodeWhirlpool 解析池子账户，头8字节是anchor账户discriminator
func DecodeWhirlpool(data []byte) (*Whirlpool, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("orca whirlpool account too short: %d", len(data))
	}

	var pool Whirlpool
	if err := bin.NewBorshDecoder(data[8:]).Decode(&pool); err != nil {
		return nil, fmt.Errorf("decode orca whirlpool: %w", err)
	}
	return &pool, nil
}

// RewardMints 已启用的奖励代币
func (w *Whirlpool) RewardMints() []solana.PublicKey {
	var mints []solana.PublicKey
	for _, info := range w.RewardInfos {
		if !info.Mint.IsZero() {
			mints = append(mints, info.Mint)
		}
	}
	return mints
}
