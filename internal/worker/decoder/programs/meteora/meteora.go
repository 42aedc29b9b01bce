// Package meteora 解析Meteora DLMM的池子和事件
package meteora

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID Meteora DLMM程序地址
var ProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

// StaticParameters 建池时配置的费率参数
type StaticParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	MinBinID                 int32
	MaxBinID                 int32
	ProtocolShare            uint16
	Padding                  [6]uint8
}

// VariableParameters 随成交波动更新的费率参数
type VariableParameters struct {
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IndexReference        int32
	Padding               [4]uint8
	LastUpdateTimestamp   int64
	Padding1              [8]uint8
}

// RewardInfo 池子奖励配置，Mint为零值表示槽位未启用
type RewardInfo struct {
	Mint              solana.PublicKey
	Vault             solana.PublicKey
	Funder            solana.PublicKey
	RewardDuration    uint64
	RewardDurationEnd uint64
}

// LbPair Meteora池子账户。只声明到需要的字段为止，尾部字节不解析
type LbPair struct {
	Parameters  StaticParameters
	VParameters VariableParameters
	BumpSeed    [1]uint8
	BinStepSeed [2]uint8
	PairType    uint8
	ActiveID    int32
	BinStep     uint16
	Status      uint8
	Padding     [5]uint8
	TokenXMint  solana.PublicKey
	TokenYMint  solana.PublicKey
	ReserveX    solana.PublicKey
	ReserveY    solana.PublicKey
	RewardInfos [2]RewardInfo
}

// DecodeLbPair 解析池子账户，头8字节是anchor账户discriminator
func DecodeLbPair(data []byte) (*LbPair, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("meteora lb pair account too short: %d", len(data))
	}

	var pair LbPair
	if err := bin.NewBorshDecoder(data[8:]).Decode(&pair); err != nil {
		return nil, fmt.Errorf("decode meteora lb pair: %w", err)
	}
	return &pair, nil
}

// RewardMints 已启用的奖励代币
func (p *LbPair) RewardMints() []solana.PublicKey {
	var mints []solana.PublicKey
	for _, info := range p.RewardInfos {
		if !info.Mint.IsZero() {
			mints = append(mints, info.Mint)
		}
	}
	return mints
}
