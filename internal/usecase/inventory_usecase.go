package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 楽観ロックの版ずれで load-mutate-save をやり直す上限。
// 超えたら409で呼び出し元に返す（自動では諦める）。
const maxSaveAttempts = 3

// 在庫のコマンドハンドラ。
// 1回の操作で触る在庫レコードは必ず1件だけ。
// 保存・イベント積み・履歴は同じTxに入れる。
type InventoryUsecase struct {
	tx            repo.TransactionManager
	inventoryRepo repo.InventoryRepository
	logger        *zap.Logger
}

// DI
func NewInventoryUsecase(
	tx repo.TransactionManager,
	inventoryRepo repo.InventoryRepository,
	logger *zap.Logger,
) *InventoryUsecase {
	return &InventoryUsecase{
		tx:            tx,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

type InventoryOutput struct {
	ID                int64     `json:"id"`
	ProductID         int64     `json:"product_id"`
	LocationID        int64     `json:"location_id"`
	Quantity          int64     `json:"quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toInventoryOutput(rec model.InventoryRecord) InventoryOutput {
	return InventoryOutput{
		ID:                rec.ID,
		ProductID:         rec.ProductID,
		LocationID:        rec.LocationID,
		Quantity:          rec.Quantity,
		ReservedQuantity:  rec.ReservedQuantity,
		AvailableQuantity: rec.AvailableQuantity(),
		UpdatedAt:         rec.UpdatedAt,
	}
}

type CreateInventoryInput struct {
	ProductID       int64
	LocationID      int64
	InitialQuantity int64
}

// 商品を拠点に初めて置くときに在庫レコードを作る。予約は0から。
func (u *InventoryUsecase) CreateInventory(ctx context.Context, adminUserID int64, in CreateInventoryInput) (InventoryOutput, error) {
	if adminUserID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.LocationID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}
	if in.InitialQuantity < 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
	}

	var out InventoryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()
		created, err := r.Inventory().Create(ctx, model.InventoryRecord{
			ProductID:        in.ProductID,
			LocationID:       in.LocationID,
			Quantity:         in.InitialQuantity,
			ReservedQuantity: 0,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if errors.Is(err, repo.ErrConflict) {
			//同じ (product, location) のレコードは1件だけ
			return NewHTTPError(http.StatusConflict, "inventory already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログを作成（在庫レコード作成）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateInventory,
			ResourceType: model.AuditResourceInventory,
			ResourceID:   created.ID,
			AfterJSON:    fmt.Sprintf(`{"quantity":%d,"reserved_quantity":0}`, created.Quantity),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toInventoryOutput(created)
		return nil
	})
	if err != nil {
		return InventoryOutput{}, err
	}

	return out, nil
}

func (u *InventoryUsecase) GetInventory(ctx context.Context, id int64) (InventoryOutput, error) {
	if id <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rec, err := u.inventoryRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return InventoryOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return InventoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toInventoryOutput(rec), nil
}

func (u *InventoryUsecase) ListByProduct(ctx context.Context, productID int64) ([]InventoryOutput, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	recs, err := u.inventoryRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]InventoryOutput, 0, len(recs))
	for _, rec := range recs {
		outs = append(outs, toInventoryOutput(rec))
	}
	return outs, nil
}

func (u *InventoryUsecase) ListByLocation(ctx context.Context, locationID int64) ([]InventoryOutput, error) {
	if locationID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}

	recs, err := u.inventoryRepo.ListByLocationID(ctx, locationID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]InventoryOutput, 0, len(recs))
	for _, rec := range recs {
		outs = append(outs, toInventoryOutput(rec))
	}
	return outs, nil
}

// 実在庫の補正（管理者のみ）。調整履歴と監査ログも同じTxで残す。
func (u *InventoryUsecase) AdjustStock(ctx context.Context, adminUserID int64, recordID int64, adjustment int64, reason string) (InventoryOutput, error) {
	if adminUserID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if adjustment == 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "adjustment must not be 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}
	if len(reason) > model.MaxAdjustReasonLength {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	return u.mutateRecord(ctx, recordID,
		func(rec *model.InventoryRecord) ([]model.StockEvent, error) {
			return rec.AdjustStock(adjustment, reason)
		},
		func(r repo.TxRepos, before model.InventoryRecord, after model.InventoryRecord) error {
			//調整履歴
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				InventoryID: after.ID,
				ProductID:   after.ProductID,
				LocationID:  after.LocationID,
				AdminUserID: adminUserID,
				Delta:       adjustment,
				Reason:      reason,
				CreatedAt:   time.Now(),
			}); err != nil {
				return err
			}

			//監査ログ（誰が・どの在庫を・どう変えたか）
			return r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  adminUserID,
				Action:       model.AuditActionAdjustStock,
				ResourceType: model.AuditResourceInventory,
				ResourceID:   after.ID,
				BeforeJSON:   fmt.Sprintf(`{"quantity":%d}`, before.Quantity),
				AfterJSON:    fmt.Sprintf(`{"quantity":%d}`, after.Quantity),
				CreatedAt:    time.Now(),
			})
		},
	)
}

// 注文のための取り置き。
func (u *InventoryUsecase) ReserveStock(ctx context.Context, recordID int64, quantity int64) (InventoryOutput, error) {
	if quantity <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	return u.mutateRecord(ctx, recordID,
		func(rec *model.InventoryRecord) ([]model.StockEvent, error) {
			return rec.ReserveStock(quantity)
		}, nil)
}

// 予約の確定（出荷）。予約と実在庫を同じ量だけ減らす。
func (u *InventoryUsecase) CommitReservation(ctx context.Context, recordID int64, quantity int64) (InventoryOutput, error) {
	if quantity <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	return u.mutateRecord(ctx, recordID,
		func(rec *model.InventoryRecord) ([]model.StockEvent, error) {
			return rec.CommitReservation(quantity)
		}, nil)
}

// 予約の取り消し（キャンセル）。実在庫は変えない。
func (u *InventoryUsecase) ReleaseReservation(ctx context.Context, recordID int64, quantity int64) (InventoryOutput, error) {
	if quantity <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	return u.mutateRecord(ctx, recordID,
		func(rec *model.InventoryRecord) ([]model.StockEvent, error) {
			return rec.ReleaseReservation(quantity)
		}, nil)
}

// load-mutate-save の1サイクル。
// Saveが版ずれ（ErrConflict）を返したら、読み直して最初からやり直す。
// InsufficientStock と NotFound はリトライしない。
func (u *InventoryUsecase) mutateRecord(
	ctx context.Context,
	recordID int64,
	op func(rec *model.InventoryRecord) ([]model.StockEvent, error),
	after func(r repo.TxRepos, before model.InventoryRecord, after model.InventoryRecord) error,
) (InventoryOutput, error) {
	if recordID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out InventoryOutput

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			rec, err := r.Inventory().FindByID(ctx, recordID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			before := rec

			events, err := op(&rec)
			if errors.Is(err, model.ErrInsufficientStock) {
				return NewHTTPError(http.StatusConflict, "insufficient stock")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "internal error")
			}

			//楽観ロック付き保存。版ずれはErrConflictのまま上へ返してリトライさせる
			if err := r.Inventory().Save(ctx, rec); err != nil {
				if errors.Is(err, repo.ErrConflict) {
					return err
				}
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusNotFound, "not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//イベントはoutboxへ（同じTx）
			if err := r.StockEvents().CreateBatch(ctx, events); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if after != nil {
				if err := after(r, before, rec); err != nil {
					if he, ok := AsHTTPError(err); ok {
						return he
					}
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}

			out = toInventoryOutput(rec)
			return nil
		})

		if errors.Is(err, repo.ErrConflict) {
			u.logger.Warn("inventory save conflict, retrying",
				zap.Int64("inventory_id", recordID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return InventoryOutput{}, err
		}
		return out, nil
	}

	u.logger.Warn("inventory save conflict, giving up",
		zap.Int64("inventory_id", recordID),
		zap.Int("attempts", maxSaveAttempts),
	)
	return InventoryOutput{}, NewHTTPError(http.StatusConflict, "conflict, please retry")
}
