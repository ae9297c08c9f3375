package handler

import (
	"net/http"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type PlaybookHandler struct {
	logger          *zap.Logger
	playbookService *service.PlaybookService
}

func NewPlaybookHandler(logger *zap.Logger, playbookService *service.PlaybookService) *PlaybookHandler {
	return &PlaybookHandler{
		logger:          logger,
		playbookService: playbookService,
	}
}

// List GET /api/playbooks?include_archived=true
func (h *PlaybookHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	includeArchived := cast.ToBool(c.QueryParam("include_archived"))
	items, err := h.playbookService.List(ctx, currentUserID(c), includeArchived)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PlaybookHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	var req service.PlaybookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.playbookService.Create(ctx, currentUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *PlaybookHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	var req service.PlaybookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.playbookService.Update(ctx, currentUserID(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *PlaybookHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.playbookService.Delete(ctx, currentUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PlaybookHandler) RegisterRoutes(g *echo.Group) {
	playbooks := g.Group("/playbooks")
	playbooks.GET("", h.List)
	playbooks.POST("", h.Create)
	playbooks.PUT("/:id", h.Update)
	playbooks.DELETE("/:id", h.Delete)
}
