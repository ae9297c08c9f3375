package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/handler"
	jwtmw "github.com/dushixiang/tradejournal/internal/middleware"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/telegram"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/dushixiang/tradejournal/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewJournalApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewJournalApp() orz.Application {
	return &JournalApp{}
}

var _ orz.Application = (*JournalApp)(nil)

type AppComponents struct {
	AuthHandler     *handler.AuthHandler
	AccountHandler  *handler.AccountHandler
	JournalHandler  *handler.JournalHandler
	StatsHandler    *handler.StatsHandler
	PlaybookHandler *handler.PlaybookHandler

	AuthService *service.AuthService
	SyncLoop    *service.SyncLoop

	tg *telegram.Telegram
}

type JournalApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *JournalApp) GetComponents() *AppComponents {
	return r.components
}

func (r *JournalApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.Normalize()

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, nostd.Token},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().RequestURI, "/api")
		},
		Index:      "index.html",
		HTML5:      true,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	r.registerRoutes(api, logger)

	return r.Init(logger)
}

func (r *JournalApp) registerRoutes(api *echo.Group, logger *zap.Logger) {
	c := r.components
	c.AuthHandler.RegisterRoutes(api)

	protected := api.Group("", jwtmw.JWTAuth(jwtmw.JWTAuthConfig{
		AuthService: c.AuthService,
		Logger:      logger,
	}))
	{
		c.AuthHandler.RegisterProtectedRoutes(protected)
		c.AccountHandler.RegisterRoutes(protected)
		c.JournalHandler.RegisterRoutes(protected)
		c.StatsHandler.RegisterRoutes(protected)
		c.PlaybookHandler.RegisterRoutes(protected)
	}
}

func (r *JournalApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Trade Journal Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if components.tg != nil {
		components.tg.HandleStatus(components.SyncLoop.StatusText)
		components.tg.Start()
		logger.Info("telegram bot started")
	}

	if !r.conf.Sync.Enabled {
		logger.Info("scheduled sync disabled, accounts sync on demand only")
		return nil
	}

	go func() {
		if err := components.SyncLoop.Start(context.Background()); err != nil {
			logger.Error("sync loop error", zap.Error(err))
		}
	}()
	return nil
}
