package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type LocationGormRepository struct {
	db *gorm.DB
}

// DI
func NewLocationGormRepository(db *gorm.DB) *LocationGormRepository {
	return &LocationGormRepository{db: db}
}

// 拠点一覧
func (r *LocationGormRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).Order("id asc").Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// IDで拠点を取得
func (r *LocationGormRepository) FindByID(ctx context.Context, id int64) (model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Location{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Location{}, err
	}
	return l, nil
}

// 拠点の作成。Code重複は ErrConflict
func (r *LocationGormRepository) Create(ctx context.Context, l model.Location) (model.Location, error) {
	if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Location{}, repo.ErrConflict
		}
		return model.Location{}, err
	}
	return l, nil
}

// 拠点の更新
func (r *LocationGormRepository) Update(ctx context.Context, l model.Location) error {
	res := r.db.WithContext(ctx).Model(&model.Location{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"name":      l.Name,
		"address":   l.Address,
		"is_active": l.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 拠点削除
func (r *LocationGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Location{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
