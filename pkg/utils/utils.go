package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AdjustDecimals 按mint精度归一化链上原始整数金额
func AdjustDecimals(value *big.Int, decimals uint8) decimal.Decimal {
	decimalValue := decimal.NewFromBigInt(value, 0)
	divisor := decimal.New(1, int32(decimals))
	return decimalValue.Div(divisor)
}

// AdjustUintDecimals AdjustDecimals 的 uint64 版本
func AdjustUintDecimals(value uint64, decimals uint8) decimal.Decimal {
	return AdjustDecimals(new(big.Int).SetUint64(value), decimals)
}

// Dedup 去重并保持原始顺序
func Dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
