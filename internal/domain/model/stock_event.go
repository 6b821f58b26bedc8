package model

import (
	"time"

	"github.com/google/uuid"
)

// 在庫操作の種類
type StockEventType string

const (
	StockAdjusted        StockEventType = "STOCK_ADJUSTED"
	StockReserved        StockEventType = "STOCK_RESERVED"
	ReservationCommitted StockEventType = "RESERVATION_COMMITTED"
	ReservationReleased  StockEventType = "RESERVATION_RELEASED"
)

// StockEvent は在庫操作で発生するドメインイベント。
// 集約は返すだけで、outboxへの保存と配信は呼び出し側の仕事。
// PublishedAt が NULL の行が未配信。
type StockEvent struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	Type        StockEventType `gorm:"type:varchar(50);not null;index" json:"type"`
	InventoryID int64          `gorm:"not null;index" json:"inventory_id"`
	ProductID   int64          `gorm:"not null;index" json:"product_id"`
	LocationID  int64          `gorm:"not null" json:"location_id"`
	Quantity    int64          `gorm:"not null" json:"quantity"`
	Reason      string         `gorm:"type:varchar(500)" json:"reason,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at,omitempty"`
}

func newStockEvent(r *InventoryRecord, t StockEventType, quantity int64, reason string) StockEvent {
	return StockEvent{
		EventID:     uuid.NewString(),
		Type:        t,
		InventoryID: r.ID,
		ProductID:   r.ProductID,
		LocationID:  r.LocationID,
		Quantity:    quantity,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}
}
