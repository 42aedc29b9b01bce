// Package saros 解析Saros流动性订单簿(DLMM)的池子和事件
package saros

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID Saros DLMM程序地址
var ProgramID = solana.MustPublicKeyFromBase58("1qbkdrr3z4ryLA7pZykqxvxWPoeifcVKo6ZG9CfkvVE")

// StaticFeeParameters 建池时配置的费率参数
type StaticFeeParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	ProtocolShare            uint16
	Padding                  [2]uint8
}

// DynamicFeeParameters 随成交波动更新的费率参数
type DynamicFeeParameters struct {
	TimeLastUpdated       int64
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IDReference           uint32
	Padding               [4]uint8
}

// Pair Saros池子账户。只声明到需要的字段为止，尾部字节不解析
type Pair struct {
	Bump                 [1]uint8
	LiquidityBookConfig  solana.PublicKey
	BinStep              uint8
	BinStepSeed          [1]uint8
	TokenMintX           solana.PublicKey
	TokenMintY           solana.PublicKey
	StaticFeeParameters  StaticFeeParameters
	ActiveID             uint32
	DynamicFeeParameters DynamicFeeParameters
	ProtocolFeesX        uint64
	ProtocolFeesY        uint64
}

// DecodePair 解析池子账户，头8字节是anchor账户discriminator
func DecodePair(data []byte) (*Pair, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("saros pair account too short: %d", len(data))
	}

	var pair Pair
	if err := bin.NewBorshDecoder(data[8:]).Decode(&pair); err != nil {
		return nil, fmt.Errorf("decode saros pair: %w", err)
	}
	return &pair, nil
}
