package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod

	AdminEmail    string // 起動時にシードする管理者（空ならシードしない）
	AdminPassword string

	KafkaBrokers    []string      // 空ならイベントはログ配信のみ
	StockEventTopic string        // 在庫イベントのトピック
	OutboxInterval  time.Duration // outboxのポーリング間隔
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		StockEventTopic: os.Getenv("STOCK_EVENT_TOPIC"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.GoEnv == "" {
		cfg.GoEnv = "dev"
	}

	//Kafkaは任意。未設定ならoutboxはログ配信になる
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if cfg.StockEventTopic == "" {
		cfg.StockEventTopic = "stock-events"
	}

	interval := 5
	if v := os.Getenv("OUTBOX_INTERVAL_SECONDS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i <= 0 {
			return Config{}, fmt.Errorf("OUTBOX_INTERVAL_SECONDS must be a positive number")
		}
		interval = i
	}
	cfg.OutboxInterval = time.Duration(interval) * time.Second

	return cfg, nil
}
