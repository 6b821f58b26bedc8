package messaging

import (
	"context"

	"app/internal/domain/model"

	"go.uber.org/zap"
)

// Kafka未設定のときの配信先。ログに出すだけ。
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	p.logger.Info("stock event",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.Int64("inventory_id", event.InventoryID),
		zap.Int64("product_id", event.ProductID),
		zap.Int64("location_id", event.LocationID),
		zap.Int64("quantity", event.Quantity),
		zap.String("reason", event.Reason),
	)
	return nil
}
