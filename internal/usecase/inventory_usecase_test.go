package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// =====================
// インメモリの在庫ストア（楽観ロック付き）
// =====================

// versionを比較して版ずれならErrConflictを返す、本物のストアと同じ約束のフェイク。
// beforeSave を使うと「保存直前に別のクライアントが割り込んだ」状況を作れる。
type fakeInventoryStore struct {
	rec         model.InventoryRecord
	exists      bool
	adjustments []model.InventoryAdjustment
	beforeSave  func(s *fakeInventoryStore)

	saveCalls int
}

func (s *fakeInventoryStore) FindByID(ctx context.Context, id int64) (model.InventoryRecord, error) {
	if !s.exists || s.rec.ID != id {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	return s.rec, nil
}

func (s *fakeInventoryStore) ListByProductID(ctx context.Context, productID int64) ([]model.InventoryRecord, error) {
	if s.exists && s.rec.ProductID == productID {
		return []model.InventoryRecord{s.rec}, nil
	}
	return []model.InventoryRecord{}, nil
}

func (s *fakeInventoryStore) ListByLocationID(ctx context.Context, locationID int64) ([]model.InventoryRecord, error) {
	if s.exists && s.rec.LocationID == locationID {
		return []model.InventoryRecord{s.rec}, nil
	}
	return []model.InventoryRecord{}, nil
}

func (s *fakeInventoryStore) Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	if s.exists && s.rec.ProductID == rec.ProductID && s.rec.LocationID == rec.LocationID {
		return model.InventoryRecord{}, repo.ErrConflict
	}
	rec.ID = 1
	s.rec = rec
	s.exists = true
	return rec, nil
}

func (s *fakeInventoryStore) Save(ctx context.Context, rec model.InventoryRecord) error {
	if s.beforeSave != nil {
		hook := s.beforeSave
		s.beforeSave = nil
		hook(s)
	}

	s.saveCalls++

	if !s.exists || s.rec.ID != rec.ID {
		return repo.ErrNotFound
	}
	if s.rec.Version != rec.Version {
		return repo.ErrConflict
	}

	rec.Version++
	s.rec = rec
	return nil
}

func (s *fakeInventoryStore) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	s.adjustments = append(s.adjustments, adj)
	return nil
}

type fakeStockEventRepo struct {
	events []model.StockEvent
}

func (r *fakeStockEventRepo) CreateBatch(ctx context.Context, events []model.StockEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *fakeStockEventRepo) ListUnpublished(ctx context.Context, limit int) ([]model.StockEvent, error) {
	return nil, nil
}

func (r *fakeStockEventRepo) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	return nil
}

type fakeAuditLogRepo struct {
	logs []model.AuditLog
}

func (r *fakeAuditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditLogRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	return r.logs, nil
}

type fakeTxRepos struct {
	inventory *fakeInventoryStore
	events    *fakeStockEventRepo
	audits    *fakeAuditLogRepo
}

func (r *fakeTxRepos) Inventory() repo.InventoryRepository    { return r.inventory }
func (r *fakeTxRepos) StockEvents() repo.StockEventRepository { return r.events }
func (r *fakeTxRepos) AuditLogs() repo.AuditLogRepository     { return r.audits }

type fakeTxManager struct {
	repos *fakeTxRepos
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

func newTestUsecase(store *fakeInventoryStore) (*usecase.InventoryUsecase, *fakeTxRepos) {
	repos := &fakeTxRepos{
		inventory: store,
		events:    &fakeStockEventRepo{},
		audits:    &fakeAuditLogRepo{},
	}
	uc := usecase.NewInventoryUsecase(&fakeTxManager{repos: repos}, store, zap.NewNop())
	return uc, repos
}

func storeWith(quantity int64, reserved int64) *fakeInventoryStore {
	return &fakeInventoryStore{
		rec: model.InventoryRecord{
			ID:               1,
			ProductID:        10,
			LocationID:       20,
			Quantity:         quantity,
			ReservedQuantity: reserved,
			Version:          3,
		},
		exists: true,
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	assert.Equal(t, status, he.Status)
}

// =====================
// Reserve / Commit / Release
// =====================

func TestInventoryUsecase_ReserveStock_Success(t *testing.T) {
	store := storeWith(100, 0)
	uc, repos := newTestUsecase(store)

	out, err := uc.ReserveStock(context.Background(), 1, 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), out.Quantity)
	assert.Equal(t, int64(30), out.ReservedQuantity)
	assert.Equal(t, int64(70), out.AvailableQuantity)

	//保存された状態も同じ
	assert.Equal(t, int64(30), store.rec.ReservedQuantity)
	//versionが進んでいる
	assert.Equal(t, int64(4), store.rec.Version)

	//イベントがoutboxに積まれている
	assert.Len(t, repos.events.events, 1)
	assert.Equal(t, model.StockReserved, repos.events.events[0].Type)
}

func TestInventoryUsecase_ReserveStock_Insufficient(t *testing.T) {
	store := storeWith(100, 30)
	uc, repos := newTestUsecase(store)

	_, err := uc.ReserveStock(context.Background(), 1, 80)
	assertHTTPStatus(t, err, http.StatusConflict)

	//状態は変わらず、イベントも積まれない
	assert.Equal(t, int64(30), store.rec.ReservedQuantity)
	assert.Empty(t, repos.events.events)
}

func TestInventoryUsecase_ReserveStock_NotFound(t *testing.T) {
	store := &fakeInventoryStore{}
	uc, _ := newTestUsecase(store)

	_, err := uc.ReserveStock(context.Background(), 99, 10)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestInventoryUsecase_ReserveStock_InvalidQuantity(t *testing.T) {
	uc, _ := newTestUsecase(storeWith(100, 0))

	_, err := uc.ReserveStock(context.Background(), 1, 0)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestInventoryUsecase_CommitReservation_Success(t *testing.T) {
	store := storeWith(100, 30)
	uc, repos := newTestUsecase(store)

	out, err := uc.CommitReservation(context.Background(), 1, 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(70), out.Quantity)
	assert.Equal(t, int64(0), out.ReservedQuantity)
	assert.Equal(t, int64(70), out.AvailableQuantity)

	assert.Len(t, repos.events.events, 1)
	assert.Equal(t, model.ReservationCommitted, repos.events.events[0].Type)
}

func TestInventoryUsecase_ReleaseReservation_Success(t *testing.T) {
	store := storeWith(100, 30)
	uc, repos := newTestUsecase(store)

	out, err := uc.ReleaseReservation(context.Background(), 1, 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), out.Quantity)
	assert.Equal(t, int64(0), out.ReservedQuantity)
	assert.Equal(t, int64(100), out.AvailableQuantity)

	assert.Len(t, repos.events.events, 1)
	assert.Equal(t, model.ReservationReleased, repos.events.events[0].Type)
}

// =====================
// AdjustStock（履歴と監査ログ）
// =====================

func TestInventoryUsecase_AdjustStock_Success(t *testing.T) {
	store := storeWith(100, 30)
	uc, repos := newTestUsecase(store)

	out, err := uc.AdjustStock(context.Background(), 7, 1, -20, "damage")
	assert.NoError(t, err)
	assert.Equal(t, int64(80), out.Quantity)
	assert.Equal(t, int64(30), out.ReservedQuantity)
	assert.Equal(t, int64(50), out.AvailableQuantity)

	//調整履歴
	assert.Len(t, store.adjustments, 1)
	assert.Equal(t, int64(-20), store.adjustments[0].Delta)
	assert.Equal(t, "damage", store.adjustments[0].Reason)
	assert.Equal(t, int64(7), store.adjustments[0].AdminUserID)

	//監査ログ（before/after）
	assert.Len(t, repos.audits.logs, 1)
	assert.Equal(t, model.AuditActionAdjustStock, repos.audits.logs[0].Action)
	assert.JSONEq(t, `{"quantity":100}`, repos.audits.logs[0].BeforeJSON)
	assert.JSONEq(t, `{"quantity":80}`, repos.audits.logs[0].AfterJSON)

	//イベント
	assert.Len(t, repos.events.events, 1)
	assert.Equal(t, model.StockAdjusted, repos.events.events[0].Type)
}

func TestInventoryUsecase_AdjustStock_BelowReserved(t *testing.T) {
	store := storeWith(100, 30)
	uc, repos := newTestUsecase(store)

	//残り20 < 予約30 になる補正は拒否
	_, err := uc.AdjustStock(context.Background(), 7, 1, -80, "damage")
	assertHTTPStatus(t, err, http.StatusConflict)

	assert.Equal(t, int64(100), store.rec.Quantity)
	assert.Empty(t, store.adjustments)
	assert.Empty(t, repos.audits.logs)
}

func TestInventoryUsecase_AdjustStock_Validation(t *testing.T) {
	uc, _ := newTestUsecase(storeWith(100, 0))
	ctx := context.Background()

	_, err := uc.AdjustStock(ctx, 0, 1, 10, "r")
	assertHTTPStatus(t, err, http.StatusUnauthorized)

	_, err = uc.AdjustStock(ctx, 7, 1, 0, "r")
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.AdjustStock(ctx, 7, 1, 10, "   ")
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// =====================
// CreateInventory
// =====================

func TestInventoryUsecase_CreateInventory_Success(t *testing.T) {
	store := &fakeInventoryStore{}
	uc, repos := newTestUsecase(store)

	out, err := uc.CreateInventory(context.Background(), 7, usecase.CreateInventoryInput{
		ProductID:       10,
		LocationID:      20,
		InitialQuantity: 50,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(50), out.Quantity)
	assert.Equal(t, int64(0), out.ReservedQuantity)

	assert.Len(t, repos.audits.logs, 1)
	assert.Equal(t, model.AuditActionCreateInventory, repos.audits.logs[0].Action)
}

// 同じ (product, location) には1件だけ
func TestInventoryUsecase_CreateInventory_Duplicate(t *testing.T) {
	store := storeWith(10, 0)
	uc, _ := newTestUsecase(store)

	_, err := uc.CreateInventory(context.Background(), 7, usecase.CreateInventoryInput{
		ProductID:       10,
		LocationID:      20,
		InitialQuantity: 5,
	})
	assertHTTPStatus(t, err, http.StatusConflict)
}

// =====================
// 並行更新（楽観ロック）
// =====================

// 2つのクライアントが同じ在庫（Quantity=10, Reserved=0）を同時に読み、
// それぞれReserve(10)する。片方の保存だけが成功し、もう片方は版ずれで
// 読み直した結果、今度は在庫不足で失敗する。両方成功（Reserved=20）は許されない。
func TestInventoryUsecase_ReserveStock_ConcurrentConflict(t *testing.T) {
	store := storeWith(10, 0)
	uc, _ := newTestUsecase(store)

	//このクライアントが保存する直前に、別のクライアントがReserve(10)を横取りして保存する
	store.beforeSave = func(s *fakeInventoryStore) {
		other := s.rec
		_, err := other.ReserveStock(10)
		if err != nil {
			t.Fatalf("competing reserve failed: %v", err)
		}
		other.Version++
		s.rec = other
	}

	_, err := uc.ReserveStock(context.Background(), 1, 10)

	//リトライの末、在庫不足で返る
	assertHTTPStatus(t, err, http.StatusConflict)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "insufficient stock", he.Message)

	//勝った方の10だけが予約されている。20は絶対にダメ
	assert.Equal(t, int64(10), store.rec.ReservedQuantity)
	assert.Equal(t, int64(10), store.rec.Quantity)

	//1回目の保存（版ずれ）と、リトライでの読み直しが起きている
	assert.GreaterOrEqual(t, store.saveCalls, 1)
}

// 版ずれが続く場合は上限までリトライして409で諦める
func TestInventoryUsecase_ReserveStock_ConflictRetryExhausted(t *testing.T) {
	store := storeWith(100, 0)
	uc, _ := newTestUsecase(store)

	//毎回、保存直前に別クライアントがversionだけ進める（beforeSaveは1回で消えるので仕掛け直す）
	calls := 0
	var bump func(s *fakeInventoryStore)
	bump = func(s *fakeInventoryStore) {
		calls++
		s.rec.Version++
		s.beforeSave = bump
	}
	store.beforeSave = bump

	_, err := uc.ReserveStock(context.Background(), 1, 10)
	assertHTTPStatus(t, err, http.StatusConflict)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "conflict, please retry", he.Message)

	//3回試して3回とも版ずれ
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(0), store.rec.ReservedQuantity)
}
