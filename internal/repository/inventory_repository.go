package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

// 楽観ロックの版ずれ、または (product, location) の重複。
// 呼び出し側は load-mutate-save を最初からやり直す。
var ErrConflict = errors.New("conflict")

// 在庫レコードの永続化の約束。
// Save は渡されたレコードの Version と行の version が一致するときだけ更新し、
// ずれていたら ErrConflict を返す（サイレントな上書きはしない）。
type InventoryRepository interface {
	FindByID(ctx context.Context, id int64) (model.InventoryRecord, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.InventoryRecord, error)
	ListByLocationID(ctx context.Context, locationID int64) ([]model.InventoryRecord, error)

	// (product, location) が重複したら ErrConflict
	Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error)
	Save(ctx context.Context, rec model.InventoryRecord) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
