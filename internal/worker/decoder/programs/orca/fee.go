package orca

import (
	"github.com/shopspring/decimal"
)

var (
	feeDenominator         = decimal.NewFromInt(1_000_000)
	variableFeeDenominator = decimal.New(1, 11)
	protocolFeeRateMax     = decimal.NewFromInt(10_000)
)

// BaseFee 基础费率 feeRate / 1e6
func BaseFee(feeRate uint16) decimal.Decimal {
	return decimal.NewFromInt(int64(feeRate)).Div(feeDenominator)
}

// VariableFee 自适应费率分量 (volatilityAccumulator × tickSpacing)² × controlFactor / 1e11。
// 池子没挂自适应费oracle时controlFactor传0
func VariableFee(tickSpacing uint16, volatilityAccumulator, controlFactor uint32) decimal.Decimal {
	if controlFactor == 0 {
		return decimal.Zero
	}
	product := decimal.NewFromInt(int64(volatilityAccumulator) * int64(tickSpacing))
	return product.Mul(product).
		Mul(decimal.NewFromInt(int64(controlFactor))).
		Div(variableFeeDenominator)
}

// DynamicFee 当前总费率
func DynamicFee(pool *Whirlpool, volatilityAccumulator, controlFactor uint32) decimal.Decimal {
	return BaseFee(pool.FeeRate).
		Add(VariableFee(pool.TickSpacing, volatilityAccumulator, controlFactor))
}

// ProtocolFee 协议抽成，基础费率 × protocolFeeRate / 1e4
func ProtocolFee(baseFee decimal.Decimal, protocolFeeRate uint16) decimal.Decimal {
	return baseFee.Mul(decimal.NewFromInt(int64(protocolFeeRate))).Div(protocolFeeRateMax)
}
