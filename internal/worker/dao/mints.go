package dao

import (
	"context"

	"dex-lens/internal/worker/model"
)

// MintsDAO 定义mints数据访问接口
type MintsDAO interface {
	// GetByIDs 按mint地址批量查询
	GetByIDs(ctx context.Context, ids []string) ([]*model.Mint, error)

	// BatchInsert 批量写入代币，已存在的忽略
	BatchInsert(ctx context.Context, mints []*model.Mint) error
}
