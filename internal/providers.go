package internal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/telegram"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const telegramHTTPTimeout = 10 * time.Second

// provideTelegram 未启用或初始化失败时返回 nil，通知功能随之关闭
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

func provideBroker(conf *config.Config, logger *zap.Logger) (mtapi.Broker, error) {
	if conf.MT.BaseURL == "" {
		return nil, fmt.Errorf("mt.base_url is required")
	}
	client, err := mtapi.NewClient(
		conf.MT.BaseURL,
		time.Duration(conf.MT.TimeoutSeconds)*time.Second,
		conf.MT.ProxyURL,
	)
	if err != nil {
		return nil, err
	}

	logger.Info("MT data client initialized",
		zap.String("base_url", conf.MT.BaseURL),
		zap.Int("timeout_seconds", conf.MT.TimeoutSeconds),
		zap.Bool("proxy", conf.MT.ProxyURL != ""),
	)
	return client, nil
}

func provideSecretBox(conf *config.Config) (*nostd.SecretBox, error) {
	box, err := nostd.NewSecretBox(conf.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("security.encryption_key: %w", err)
	}
	return box, nil
}

func provideCacheStore(conf *config.Config, logger *zap.Logger) cache.Store {
	if conf.Cache.Driver != "redis" {
		logger.Info("using in-memory snapshot cache")
		return cache.NewMemoryStore(logger, conf.Cache.Prefix)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Cache.Addr,
		Password: conf.Cache.Password,
		DB:       conf.Cache.DB,
	})
	logger.Info("using redis snapshot cache", zap.String("addr", conf.Cache.Addr))
	return cache.NewRedisStore(logger, client, conf.Cache.Prefix)
}

func provideLocation(conf *config.Config) (*time.Location, error) {
	location, err := time.LoadLocation(conf.Sync.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.timezone %q: %w", conf.Sync.Timezone, err)
	}
	return location, nil
}

func provideAuthService(logger *zap.Logger, db *gorm.DB, conf *config.Config) *service.AuthService {
	return service.NewAuthService(logger, db, conf.Security.JWTSecret)
}
