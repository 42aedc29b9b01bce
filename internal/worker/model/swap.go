package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 交易方向
const (
	SwapTypeBuy  = "buy"
	SwapTypeSell = "sell"
)

// Swap 成交明细表，(signature, pair)唯一。一笔交易可以打到多个池子
type Swap struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	Signature      string          `gorm:"column:signature;not null;uniqueIndex:idx_swap_signature_pair" json:"signature"`
	PairID         string          `gorm:"column:pair;not null;uniqueIndex:idx_swap_signature_pair" json:"pair"`
	Market         string          `gorm:"column:market;not null;index" json:"market"`
	Type           string          `gorm:"column:type;not null;comment:buy/sell" json:"type"`
	BaseAmount     decimal.Decimal `gorm:"column:base_amount;type:decimal(40,20);comment:base数量 已处理精度" json:"base_amount"`
	QuoteAmount    decimal.Decimal `gorm:"column:quote_amount;type:decimal(40,20);comment:quote数量 已处理精度" json:"quote_amount"`
	Fee            decimal.Decimal `gorm:"column:fee;type:decimal(40,20);comment:手续费 已处理精度" json:"fee"`
	Price          decimal.Decimal `gorm:"column:price;type:decimal(40,20);comment:币本位成交价" json:"price"`
	BaseAmountUsd  decimal.Decimal `gorm:"column:base_amount_usd;type:decimal(40,20);comment:U本位base数量" json:"base_amount_usd"`
	QuoteAmountUsd decimal.Decimal `gorm:"column:quote_amount_usd;type:decimal(40,20);comment:U本位quote数量" json:"quote_amount_usd"`
	FeeUsd         decimal.Decimal `gorm:"column:fee_usd;type:decimal(40,20);comment:U本位手续费" json:"fee_usd"`
	PriceUsd       decimal.Decimal `gorm:"column:price_usd;type:decimal(40,20);comment:U本位成交价" json:"price_usd"`
	Tvl            decimal.Decimal `gorm:"column:tvl;type:decimal(40,20);comment:成交时池子TVL" json:"tvl"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName Swap's table name
func (*Swap) TableName() string {
	return "swaps"
}
