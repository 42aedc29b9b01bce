package dao

import (
	"context"

	"dex-lens/internal/worker/model"
)

// SwapsDAO 定义swaps数据访问接口
type SwapsDAO interface {
	// BatchUpsert 批量写入成交，(signature, pair)冲突时只重算U本位列
	BatchUpsert(ctx context.Context, swaps []*model.Swap) error

	// GetBySignature 按交易签名查询成交记录
	GetBySignature(ctx context.Context, signature string) ([]*model.Swap, error)
}
