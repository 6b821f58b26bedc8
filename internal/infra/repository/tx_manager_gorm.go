package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	inventory   repo.InventoryRepository
	stockEvents repo.StockEventRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Inventory() repo.InventoryRepository    { return r.inventory }
func (r *txReposGorm) StockEvents() repo.StockEventRepository { return r.stockEvents }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			inventory:   NewInventoryGormRepository(tx),
			stockEvents: NewStockEventGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
