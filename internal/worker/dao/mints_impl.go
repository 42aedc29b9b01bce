package dao

import (
	"context"

	"dex-lens/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mintsDAO 实现MintsDAO接口
type mintsDAO struct {
	db *gorm.DB
}

// NewMintsDAO 创建MintsDAO实例
func NewMintsDAO(db *gorm.DB) MintsDAO {
	return &mintsDAO{db: db}
}

// GetByIDs 按mint地址批量查询
func (m *mintsDAO) GetByIDs(ctx context.Context, ids []string) ([]*model.Mint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var mints []*model.Mint
	err := m.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&mints).Error
	if err != nil {
		return nil, err
	}

	return mints, nil
}

// BatchInsert 批量写入代币。精度和metadata创建后不变，冲突直接忽略
func (m *mintsDAO) BatchInsert(ctx context.Context, mints []*model.Mint) error {
	if len(mints) == 0 {
		return nil
	}

	return m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "id"},
			},
			DoNothing: true,
		}).
		CreateInBatches(mints, 200).Error
}
