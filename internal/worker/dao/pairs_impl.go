package dao

import (
	"context"

	"dex-lens/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pairsDAO 实现PairsDAO接口
type pairsDAO struct {
	db *gorm.DB
}

// NewPairsDAO 创建PairsDAO实例
func NewPairsDAO(db *gorm.DB) PairsDAO {
	return &pairsDAO{db: db}
}

// GetByIDs 按池子地址批量查询
func (p *pairsDAO) GetByIDs(ctx context.Context, ids []string) ([]*model.Pair, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var pairs []*model.Pair
	err := p.db.WithContext(ctx).
		Preload("BaseMint").
		Preload("QuoteMint").
		Where("id IN ?", ids).
		Find(&pairs).Error
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

// GetByMarket 按市场分页拉取
func (p *pairsDAO) GetByMarket(ctx context.Context, market string, limit, offset int) ([]*model.Pair, error) {
	var pairs []*model.Pair
	err := p.db.WithContext(ctx).
		Where("market = ?", market).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&pairs).Error
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

// CountByMarket 统计指定市场的池子数量
func (p *pairsDAO) CountByMarket(ctx context.Context, market string) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&model.Pair{}).
		Where("market = ?", market).
		Count(&count).Error
	return count, err
}

// BatchUpsert 批量写入池子。池子地址冲突时只刷新费率相关列，
// 由后续的UpdateReserves负责储备，避免并发对账互相覆盖
func (p *pairsDAO) BatchUpsert(ctx context.Context, pairs []*model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).
		Omit("BaseMint", "QuoteMint").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"dynamic_fee":  gorm.Expr("EXCLUDED.dynamic_fee"),
				"protocol_fee": gorm.Expr("EXCLUDED.protocol_fee"),
			}),
		}).
		CreateInBatches(pairs, 200).Error
}

// UpdateReserves 批量刷新储备和流动性
func (p *pairsDAO) UpdateReserves(ctx context.Context, pairs []*model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pair := range pairs {
			err := tx.Model(&model.Pair{}).
				Where("id = ?", pair.ID).
				Updates(map[string]any{
					"base_reserve":      pair.BaseReserve,
					"quote_reserve":     pair.QuoteReserve,
					"base_reserve_usd":  pair.BaseReserveUsd,
					"quote_reserve_usd": pair.QuoteReserveUsd,
					"liquidity":         pair.Liquidity,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertRewardMints 批量写入奖励代币，已存在的忽略
func (p *pairsDAO) InsertRewardMints(ctx context.Context, rewards []*model.RewardMint) error {
	if len(rewards) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "pair"},
				{Name: "mint"},
			},
			DoNothing: true,
		}).
		CreateInBatches(rewards, 200).Error
}
