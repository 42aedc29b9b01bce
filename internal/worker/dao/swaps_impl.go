package dao

import (
	"context"

	"dex-lens/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// swapsDAO 实现SwapsDAO接口
type swapsDAO struct {
	db *gorm.DB
}

// NewSwapsDAO 创建SwapsDAO实例
func NewSwapsDAO(db *gorm.DB) SwapsDAO {
	return &swapsDAO{db: db}
}

// BatchUpsert 批量写入成交。同一条成交重放时链上数量不会变，
// 只有价格来源会变，所以冲突时只重算U本位列
func (s *swapsDAO) BatchUpsert(ctx context.Context, swaps []*model.Swap) error {
	if len(swaps) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "signature"},
				{Name: "pair"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"base_amount_usd":  gorm.Expr("EXCLUDED.base_amount_usd"),
				"quote_amount_usd": gorm.Expr("EXCLUDED.quote_amount_usd"),
				"fee_usd":          gorm.Expr("EXCLUDED.fee_usd"),
				"price_usd":        gorm.Expr("EXCLUDED.price_usd"),
			}),
		}).
		CreateInBatches(swaps, 200).Error
}

// GetBySignature 按交易签名查询成交记录
func (s *swapsDAO) GetBySignature(ctx context.Context, signature string) ([]*model.Swap, error) {
	var swaps []*model.Swap
	err := s.db.WithContext(ctx).
		Where("signature = ?", signature).
		Order("pair ASC").
		Find(&swaps).Error
	if err != nil {
		return nil, err
	}

	return swaps, nil
}
