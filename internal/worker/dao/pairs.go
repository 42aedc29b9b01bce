package dao

import (
	"context"

	"dex-lens/internal/worker/model"
)

// PairsDAO 定义pairs数据访问接口
type PairsDAO interface {
	// GetByIDs 按池子地址批量查询，带上base/quote mint详情。找不到的地址直接略过
	GetByIDs(ctx context.Context, ids []string) ([]*model.Pair, error)

	// GetByMarket 按市场分页拉取，对账任务用
	GetByMarket(ctx context.Context, market string, limit, offset int) ([]*model.Pair, error)

	// CountByMarket 统计指定市场的池子数量
	CountByMarket(ctx context.Context, market string) (int64, error)

	// BatchUpsert 批量写入池子，冲突时只刷新费率相关列
	BatchUpsert(ctx context.Context, pairs []*model.Pair) error

	// UpdateReserves 批量刷新储备和流动性
	UpdateReserves(ctx context.Context, pairs []*model.Pair) error

	// InsertRewardMints 批量写入奖励代币，已存在的忽略
	InsertRewardMints(ctx context.Context, rewards []*model.RewardMint) error
}
