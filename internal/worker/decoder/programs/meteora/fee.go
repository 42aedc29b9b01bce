package meteora

import (
	"github.com/shopspring/decimal"
)

var (
	feeDenominator         = decimal.NewFromInt(1_000_000)
	variableFeeDenominator = decimal.New(1, 11)
	protocolShareMax       = decimal.NewFromInt(10_000)
)

// BaseFee 基础费率 baseFactor × binStep / 1e6
func BaseFee(binStep, baseFactor uint16) decimal.Decimal {
	return decimal.NewFromInt(int64(baseFactor) * int64(binStep)).Div(feeDenominator)
}

// VariableFee 波动费率 (volatilityAccumulator × binStep)² × variableFeeControl / 1e11
func VariableFee(binStep uint16, volatilityAccumulator, variableFeeControl uint32) decimal.Decimal {
	if variableFeeControl == 0 {
		return decimal.Zero
	}
	product := decimal.NewFromInt(int64(volatilityAccumulator) * int64(binStep))
	return product.Mul(product).
		Mul(decimal.NewFromInt(int64(variableFeeControl))).
		Div(variableFeeDenominator)
}

// DynamicFee 当前总费率，基础费率加波动费率
func DynamicFee(pair *LbPair) decimal.Decimal {
	base := BaseFee(pair.BinStep, pair.Parameters.BaseFactor)
	variable := VariableFee(
		pair.BinStep,
		pair.VParameters.VolatilityAccumulator,
		pair.Parameters.VariableFeeControl,
	)
	return base.Add(variable)
}

// ProtocolFee 协议抽成，总费率 × protocolShare / 1e4
func ProtocolFee(dynamicFee decimal.Decimal, protocolShare uint16) decimal.Decimal {
	return dynamicFee.Mul(decimal.NewFromInt(int64(protocolShare))).Div(protocolShareMax)
}
