package worker

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// イベントの配信先の約束
type Publisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

// OutboxWorker は未配信の在庫イベントを定期的に拾って配信する。
// 配信に失敗した行はpublished_atが付かないので次の周回でやり直す。
// 少なくとも1回は配信される（重複は購読側がevent_idで弾く）。
type OutboxWorker struct {
	events    repo.StockEventRepository
	publisher Publisher
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

func NewOutboxWorker(
	events repo.StockEventRepository,
	publisher Publisher,
	logger *zap.Logger,
	interval time.Duration,
) *OutboxWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxWorker{
		events:    events,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
	}
}

// Run はctxが終わるまでポーリングし続ける。
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.PublishPending(ctx); err != nil {
				w.logger.Error("outbox publish failed", zap.Error(err))
			}
		}
	}
}

// PublishPending は未配信イベントを1バッチ分配信して配信済みにする。
// 途中で失敗したら、そこまでに配信できた分だけをマークする。
func (w *OutboxWorker) PublishPending(ctx context.Context) error {
	events, err := w.events.ListUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]int64, 0, len(events))
	var publishErr error

	for _, ev := range events {
		if err := w.publisher.Publish(ctx, ev); err != nil {
			publishErr = err
			break
		}
		published = append(published, ev.ID)
	}

	if len(published) > 0 {
		if err := w.events.MarkPublished(ctx, published, time.Now()); err != nil {
			return err
		}
		w.logger.Info("stock events published", zap.Int("count", len(published)))
	}

	return publishErr
}
