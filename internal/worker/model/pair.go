package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 支持的市场
const (
	MarketSaros   = "saros"
	MarketMeteora = "meteora"
	MarketOrca    = "orca"
	MarketRaydium = "raydium"
)

// Markets 全部市场，按接入顺序排列
var Markets = []string{MarketSaros, MarketMeteora, MarketOrca, MarketRaydium}

// Pair 交易对表，一行对应一个链上池子账户
type Pair struct {
	ID              string          `gorm:"column:id;primaryKey;comment:池子地址" json:"id"`
	Name            string          `gorm:"column:name;comment:展示名 base/quote符号拼接" json:"name"`
	Market          string          `gorm:"column:market;not null;index;comment:所属市场" json:"market"`
	BaseMintID      string          `gorm:"column:base_mint;not null;comment:base token地址" json:"base_mint"`
	QuoteMintID     string          `gorm:"column:quote_mint;not null;comment:quote token地址" json:"quote_mint"`
	BaseVault       string          `gorm:"column:base_vault;not null;comment:base金库地址" json:"base_vault"`
	QuoteVault      string          `gorm:"column:quote_vault;not null;comment:quote金库地址" json:"quote_vault"`
	BinStep         uint16          `gorm:"column:bin_step;comment:bin步长/tick间距" json:"bin_step"`
	BaseFee         decimal.Decimal `gorm:"column:base_fee;type:decimal(40,20);comment:基础费率" json:"base_fee"`
	MaxFee          decimal.Decimal `gorm:"column:max_fee;type:decimal(40,20);comment:费率上限" json:"max_fee"`
	DynamicFee      decimal.Decimal `gorm:"column:dynamic_fee;type:decimal(40,20);comment:当前动态费率" json:"dynamic_fee"`
	ProtocolFee     decimal.Decimal `gorm:"column:protocol_fee;type:decimal(40,20);comment:协议费率" json:"protocol_fee"`
	BaseReserve     decimal.Decimal `gorm:"column:base_reserve;type:decimal(40,20);comment:base储备 已处理精度" json:"base_reserve"`
	QuoteReserve    decimal.Decimal `gorm:"column:quote_reserve;type:decimal(40,20);comment:quote储备 已处理精度" json:"quote_reserve"`
	BaseReserveUsd  decimal.Decimal `gorm:"column:base_reserve_usd;type:decimal(40,20);comment:base储备U本位" json:"base_reserve_usd"`
	QuoteReserveUsd decimal.Decimal `gorm:"column:quote_reserve_usd;type:decimal(40,20);comment:quote储备U本位" json:"quote_reserve_usd"`
	Liquidity       decimal.Decimal `gorm:"column:liquidity;type:decimal(40,20);comment:U本位流动性" json:"liquidity"`
	Extra           *datatypes.JSON `gorm:"column:extra;comment:协议私有参数" json:"extra"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	BaseMint  *Mint `gorm:"foreignKey:BaseMintID" json:"base_mint_detail,omitempty"`
	QuoteMint *Mint `gorm:"foreignKey:QuoteMintID" json:"quote_mint_detail,omitempty"`
}

// TableName Pair's table name
func (*Pair) TableName() string {
	return "pairs"
}
