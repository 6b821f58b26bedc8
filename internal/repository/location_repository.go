package repository

import (
	"context"

	"app/internal/domain/model"
)

// 拠点の永続化（保存・取得）だけを約束。
type LocationRepository interface {
	List(ctx context.Context) ([]model.Location, error)
	FindByID(ctx context.Context, id int64) (model.Location, error)

	// Codeが重複したら ErrConflict
	Create(ctx context.Context, l model.Location) (model.Location, error)
	Update(ctx context.Context, l model.Location) error
	Delete(ctx context.Context, id int64) error
}
