package model

import (
	"errors"
	"strings"
	"time"
)

// 在庫操作の唯一のドメインエラー。
// 引数不正・予約超過・在庫不足はすべてこれで返す。
var ErrInsufficientStock = errors.New("insufficient stock")

// 調整理由の最大文字数
const MaxAdjustReasonLength = 500

// InventoryRecord は (商品, 拠点) ごとの在庫集約。
// 不変条件: 0 <= ReservedQuantity <= Quantity。
// Version は楽観ロック用で、保存時にストアが比較する。
type InventoryRecord struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        int64     `gorm:"not null;index;uniqueIndex:idx_inventory_product_location" json:"product_id"`
	LocationID       int64     `gorm:"not null;index;uniqueIndex:idx_inventory_product_location" json:"location_id"`
	Quantity         int64     `gorm:"not null" json:"quantity"`
	ReservedQuantity int64     `gorm:"not null" json:"reserved_quantity"`
	Version          int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

// 今すぐ販売できる数量（導出値。保存しない）
func (r *InventoryRecord) AvailableQuantity() int64 {
	return r.Quantity - r.ReservedQuantity
}

// 入荷・破損・棚卸などで実在庫を補正する。adjustmentは正負どちらも可。
// 予約済み数量を下回る減算と、マイナス在庫は拒否する。
func (r *InventoryRecord) AdjustStock(adjustment int64, reason string) ([]StockEvent, error) {
	if adjustment == 0 {
		return nil, ErrInsufficientStock
	}

	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > MaxAdjustReasonLength {
		return nil, ErrInsufficientStock
	}

	newQuantity := r.Quantity + adjustment
	if newQuantity < 0 || newQuantity < r.ReservedQuantity {
		return nil, ErrInsufficientStock
	}

	r.Quantity = newQuantity
	r.UpdatedAt = time.Now()

	return []StockEvent{newStockEvent(r, StockAdjusted, adjustment, reason)}, nil
}

// 出荷前の取り置き。実在庫は減らさない。
// 予約合計が実在庫を超えるなら拒否する（これが並行予約で守るべき境界）。
func (r *InventoryRecord) ReserveStock(quantity int64) ([]StockEvent, error) {
	if quantity <= 0 {
		return nil, ErrInsufficientStock
	}
	if r.ReservedQuantity+quantity > r.Quantity {
		return nil, ErrInsufficientStock
	}

	r.ReservedQuantity += quantity
	r.UpdatedAt = time.Now()

	return []StockEvent{newStockEvent(r, StockReserved, quantity, "")}, nil
}

// 予約を確定して実在庫から引き落とす（出荷済み）。
// 予約量と実在庫の両方を同じ量だけ減らす。
func (r *InventoryRecord) CommitReservation(quantity int64) ([]StockEvent, error) {
	if quantity <= 0 {
		return nil, ErrInsufficientStock
	}
	if quantity > r.ReservedQuantity {
		return nil, ErrInsufficientStock
	}
	// 不変条件上は Reserved <= Quantity だが、暗黙に頼らず明示的に確認する
	if quantity > r.Quantity {
		return nil, ErrInsufficientStock
	}

	r.ReservedQuantity -= quantity
	r.Quantity -= quantity
	r.UpdatedAt = time.Now()

	return []StockEvent{newStockEvent(r, ReservationCommitted, quantity, "")}, nil
}

// 予約の取り消し。実在庫は変えない（キャンセル）。
func (r *InventoryRecord) ReleaseReservation(quantity int64) ([]StockEvent, error) {
	if quantity <= 0 {
		return nil, ErrInsufficientStock
	}
	if quantity > r.ReservedQuantity {
		return nil, ErrInsufficientStock
	}

	r.ReservedQuantity -= quantity
	r.UpdatedAt = time.Now()

	return []StockEvent{newStockEvent(r, ReservationReleased, quantity, "")}, nil
}
