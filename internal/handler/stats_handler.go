package handler

import (
	"net/http"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// StatsHandler 日历、统计与报表
type StatsHandler struct {
	logger       *zap.Logger
	statsService *service.StatsService
}

func NewStatsHandler(logger *zap.Logger, statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		logger:       logger,
		statsService: statsService,
	}
}

// statsQuery 通用查询参数：account_id、from、to、profit(gross/net)
func statsQuery(c echo.Context) service.StatsQuery {
	return service.StatsQuery{
		AccountID: c.QueryParam("account_id"),
		From:      c.QueryParam("from"),
		To:        c.QueryParam("to"),
		Mode:      journal.ParseProfitMode(c.QueryParam("profit")),
	}
}

// Daily GET /api/stats/daily
func (h *StatsHandler) Daily(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.statsService.Daily(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StatsHandler) Weekly(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.statsService.Weekly(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StatsHandler) Monthly(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.statsService.Monthly(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StatsHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	summary, err := h.statsService.Summary(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Calendar GET /api/stats/calendar?year=2025&month=2
func (h *StatsHandler) Calendar(c echo.Context) error {
	ctx := c.Request().Context()
	year := cast.ToInt(c.QueryParam("year"))
	month := cast.ToInt(c.QueryParam("month"))
	cal, err := h.statsService.Calendar(ctx, currentUserID(c), statsQuery(c), year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

func (h *StatsHandler) Reports(c echo.Context) error {
	ctx := c.Request().Context()
	reports, err := h.statsService.Reports(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *StatsHandler) EquityCurve(c echo.Context) error {
	ctx := c.Request().Context()
	histories, err := h.statsService.EquityCurve(ctx, currentUserID(c), statsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, histories)
}

// Snapshot 仪表盘数据，优先读缓存
// GET /api/stats/snapshot?account_id=
func (h *StatsHandler) Snapshot(c echo.Context) error {
	ctx := c.Request().Context()
	snapshot, err := h.statsService.Snapshot(ctx, currentUserID(c), c.QueryParam("account_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *StatsHandler) RegisterRoutes(g *echo.Group) {
	stats := g.Group("/stats")
	stats.GET("/daily", h.Daily)
	stats.GET("/weekly", h.Weekly)
	stats.GET("/monthly", h.Monthly)
	stats.GET("/summary", h.Summary)
	stats.GET("/calendar", h.Calendar)
	stats.GET("/reports", h.Reports)
	stats.GET("/equity-curve", h.EquityCurve)
	stats.GET("/snapshot", h.Snapshot)
}
