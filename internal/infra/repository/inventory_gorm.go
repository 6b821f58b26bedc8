package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// IDで在庫レコードを取得
func (r *InventoryGormRepository) FindByID(ctx context.Context, id int64) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

// 商品の全拠点分の在庫
func (r *InventoryGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("location_id asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// 拠点の全商品分の在庫
func (r *InventoryGormRepository) ListByLocationID(ctx context.Context, locationID int64) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("product_id asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// 在庫レコードの新規作成。
// (product_id, location_id) はユニーク制約があり、重複はErrConflict。
func (r *InventoryGormRepository) Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.InventoryRecord{}, repo.ErrConflict
		}
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

// 楽観ロック付きの保存。
// WHERE id AND version で更新し、versionがずれていたら0行更新になる。
// 0行のときは行が消えたのか版ずれなのかを見分けて返す。
func (r *InventoryGormRepository) Save(ctx context.Context, rec model.InventoryRecord) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"quantity":          rec.Quantity,
			"reserved_quantity": rec.ReservedQuantity,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&model.InventoryRecord{}).
			Where("id = ?", rec.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repo.ErrNotFound
		}
		return repo.ErrConflict
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
