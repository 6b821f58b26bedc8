package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/messaging"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/worker"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 15 * time.Minute,
	}
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envは無くてもよい（直接環境変数でも動く）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Location{},
		&model.InventoryRecord{},
		&model.InventoryAdjustment{},
		&model.StockEvent{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	locationRepo := infraRepo.NewLocationGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	stockEventRepo := infraRepo.NewStockEventGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//bcrypt（シード：Hash / ログイン：Verify）
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := newJWTIssuer(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//管理者ユーザーのシード
	if err := usecase.EnsureAdminUser(ctx, userRepo, hasher, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, verifier, issuer, logger)
	productUC := usecase.NewProductUsecase(productRepo)
	locationUC := usecase.NewLocationUsecase(locationRepo)
	inventoryUC := usecase.NewInventoryUsecase(txManager, inventoryRepo, logger)
	auditLogUC := usecase.NewAuditLogUsecase(auditLogRepo)

	//outboxの配信先。Kafka未設定ならログ配信
	var publisher worker.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.StockEventTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.StockEventTopic))
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	outboxWorker := worker.NewOutboxWorker(stockEventRepo, publisher, logger, cfg.OutboxInterval)
	go outboxWorker.Run(ctx)

	//Handler生成
	e := server.New(cfg, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Location:     handler.NewLocationHandler(locationUC),
		Inventory:    handler.NewInventoryHandler(inventoryUC),
		AuditLog:     handler.NewAuditLogHandler(auditLogUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(goEnv string) (*zap.Logger, error) {
	if goEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
