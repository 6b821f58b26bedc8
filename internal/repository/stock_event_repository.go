package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 在庫イベントのoutbox。
// 集約が返したイベントを保存トランザクションと同じTxで積み、
// workerが未配信分を拾って配信済みにする。
type StockEventRepository interface {
	CreateBatch(ctx context.Context, events []model.StockEvent) error

	//未配信（published_atがNULL）のイベントを古い順に返す
	ListUnpublished(ctx context.Context, limit int) ([]model.StockEvent, error)

	//配信済みにする
	MarkPublished(ctx context.Context, eventIDs []int64, publishedAt time.Time) error
}
