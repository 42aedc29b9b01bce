package raydium

import (
	"github.com/shopspring/decimal"
)

var feeRateDenominator = decimal.NewFromInt(1_000_000)

// BaseFee 基础费率 tradeFeeRate / 1e6
func BaseFee(tradeFeeRate uint32) decimal.Decimal {
	return decimal.NewFromInt(int64(tradeFeeRate)).Div(feeRateDenominator)
}

// DynamicFee CLMM没有波动费分量，总费率恒等于基础费率
func DynamicFee(config *AmmConfig) decimal.Decimal {
	return BaseFee(config.TradeFeeRate)
}

// ProtocolFee 协议抽成，基础费率 × protocolFeeRate / 1e6
func ProtocolFee(baseFee decimal.Decimal, protocolFeeRate uint32) decimal.Decimal {
	return baseFee.Mul(decimal.NewFromInt(int64(protocolFeeRate))).Div(feeRateDenominator)
}
