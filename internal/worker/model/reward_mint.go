package model

import (
	"time"
)

// RewardMint 池子的奖励代币，(pair, mint)唯一
type RewardMint struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	PairID    string    `gorm:"column:pair;not null;uniqueIndex:idx_reward_pair_mint" json:"pair"`
	MintID    string    `gorm:"column:mint;not null;uniqueIndex:idx_reward_pair_mint" json:"mint"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName RewardMint's table name
func (*RewardMint) TableName() string {
	return "reward_mints"
}
