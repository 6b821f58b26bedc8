package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type StockEventGormRepository struct {
	db *gorm.DB
}

func NewStockEventGormRepository(db *gorm.DB) repo.StockEventRepository {
	return &StockEventGormRepository{db: db}
}

// イベントをまとめて積む（在庫保存と同じTxで呼ぶ）
func (r *StockEventGormRepository) CreateBatch(ctx context.Context, events []model.StockEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return err
	}
	return nil
}

// 未配信のイベントを古い順に返す
func (r *StockEventGormRepository) ListUnpublished(ctx context.Context, limit int) ([]model.StockEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []model.StockEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id asc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// 配信済みにする
func (r *StockEventGormRepository) MarkPublished(ctx context.Context, eventIDs []int64, publishedAt time.Time) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.StockEvent{}).
		Where("id IN ?", eventIDs).
		Update("published_at", publishedAt).Error
}
