package handler

import (
	"net/http"
	"strings"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccountHandler MT 账户连接与同步
type AccountHandler struct {
	logger         *zap.Logger
	accountService *service.AccountService
	syncService    *service.SyncService
	syncLoop       *service.SyncLoop
}

func NewAccountHandler(
	logger *zap.Logger,
	accountService *service.AccountService,
	syncService *service.SyncService,
	syncLoop *service.SyncLoop,
) *AccountHandler {
	return &AccountHandler{
		logger:         logger,
		accountService: accountService,
		syncService:    syncService,
		syncLoop:       syncLoop,
	}
}

// Connect 连接 MT 账户并立即同步一次
// POST /api/mt5/connect
func (h *AccountHandler) Connect(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.ConnectRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Platform == "" {
		req.Platform = "mt5"
	}
	req.Platform = strings.ToLower(req.Platform)
	req.Server = strings.TrimSpace(req.Server)
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID := currentUserID(c)
	account, err := h.accountService.Connect(ctx, userID, req)
	if err != nil {
		return err
	}

	result, err := h.syncService.SyncAccount(ctx, account.ID)
	if err != nil {
		// 账户已保存，同步失败时前端可稍后重试
		h.logger.Warn("initial sync failed", zap.String("account_id", account.ID), zap.Error(err))
		return c.JSON(http.StatusOK, map[string]interface{}{
			"account":    account,
			"sync_error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"account": result.Snapshot.Account,
		"sync":    result,
	})
}

// List GET /api/accounts
func (h *AccountHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	accounts, err := h.accountService.List(ctx, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

// Active GET /api/accounts/active
func (h *AccountHandler) Active(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := h.accountService.GetActive(ctx, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// SetActive PUT /api/accounts/:id/active
func (h *AccountHandler) SetActive(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := h.accountService.SetActive(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Delete DELETE /api/accounts/:id
func (h *AccountHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.accountService.Delete(ctx, currentUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Sync POST /api/accounts/:id/sync
func (h *AccountHandler) Sync(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := h.accountService.Get(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	result, err := h.syncService.SyncAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SyncStatus GET /api/sync/status
func (h *AccountHandler) SyncStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.syncLoop.GetStatus())
}

// SearchServers GET /api/servers/search?q=
func (h *AccountHandler) SearchServers(c echo.Context) error {
	ctx := c.Request().Context()
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 2 {
		return xe.ErrInvalidParams
	}
	servers, err := h.accountService.SearchServers(ctx, query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, servers)
}

func (h *AccountHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/mt5/connect", h.Connect)

	accounts := g.Group("/accounts")
	accounts.GET("", h.List)
	accounts.GET("/active", h.Active)
	accounts.PUT("/:id/active", h.SetActive)
	accounts.DELETE("/:id", h.Delete)
	accounts.POST("/:id/sync", h.Sync)

	g.GET("/sync/status", h.SyncStatus)
	g.GET("/servers/search", h.SearchServers)
}
