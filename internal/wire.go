//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/handler"
	"github.com/dushixiang/tradejournal/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewAuthHandler,
		handler.NewAccountHandler,
		handler.NewJournalHandler,
		handler.NewStatsHandler,
		handler.NewPlaybookHandler,
	)

	journalSet = wire.NewSet(
		provideBroker,
		provideSecretBox,
		provideCacheStore,
		provideLocation,
		provideAuthService,
		service.NewAccountService,
		service.NewNotifyService,
		service.NewSyncService,
		service.NewSyncLoop,
		service.NewStatsService,
		service.NewNoteService,
		service.NewPlaybookService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		journalSet,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
