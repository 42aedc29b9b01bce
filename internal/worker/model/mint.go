package model

import (
	"time"

	"gorm.io/datatypes"
)

// Mint 代币表
type Mint struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	Name      string          `gorm:"column:name" json:"name"`
	Symbol    string          `gorm:"column:symbol" json:"symbol"`
	URI       string          `gorm:"column:uri" json:"uri"`
	Decimals  uint8           `gorm:"column:decimals" json:"decimals"`
	Program   string          `gorm:"column:program" json:"program"`
	Extra     *datatypes.JSON `gorm:"column:extra;comment:metadata原始内容" json:"extra"`
	SyncAt    time.Time       `gorm:"column:sync_at;comment:最近一次链上同步时间" json:"sync_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Mint) TableName() string {
	return "mints"
}
