package dao

import (
	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	PairsDAO PairsDAO
	MintsDAO MintsDAO
	SwapsDAO SwapsDAO
}

// NewDAOManager 创建DAO管理器实例
func NewDAOManager(db *gorm.DB) *DAOManager {
	return &DAOManager{
		PairsDAO: NewPairsDAO(db),
		MintsDAO: NewMintsDAO(db),
		SwapsDAO: NewSwapsDAO(db),
	}
}
