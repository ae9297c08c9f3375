package handler

import (
	"net/http"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JournalHandler 复盘笔记和数据刷新
type JournalHandler struct {
	logger         *zap.Logger
	noteService    *service.NoteService
	accountService *service.AccountService
	syncService    *service.SyncService
}

func NewJournalHandler(
	logger *zap.Logger,
	noteService *service.NoteService,
	accountService *service.AccountService,
	syncService *service.SyncService,
) *JournalHandler {
	return &JournalHandler{
		logger:         logger,
		noteService:    noteService,
		accountService: accountService,
		syncService:    syncService,
	}
}

// ListNotes GET /api/journal/notes?from=&to=
func (h *JournalHandler) ListNotes(c echo.Context) error {
	ctx := c.Request().Context()
	notes, err := h.noteService.List(ctx, currentUserID(c), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// GetNote GET /api/journal/notes/:date?account_id=
func (h *JournalHandler) GetNote(c echo.Context) error {
	ctx := c.Request().Context()
	note, err := h.noteService.Get(ctx, currentUserID(c), c.Param("date"), c.QueryParam("account_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// SaveNote PUT /api/journal/notes/:date
func (h *JournalHandler) SaveNote(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	note, err := h.noteService.Upsert(ctx, currentUserID(c), c.Param("date"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// DeleteNote DELETE /api/journal/notes/:id
func (h *JournalHandler) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.noteService.Delete(ctx, currentUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh 重新同步当前账户并返回最新快照
// POST /api/journal/refresh
func (h *JournalHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	account, err := h.accountService.Resolve(ctx, currentUserID(c), c.QueryParam("account_id"))
	if err != nil {
		return err
	}
	result, err := h.syncService.SyncAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result.Snapshot)
}

func (h *JournalHandler) RegisterRoutes(g *echo.Group) {
	journal := g.Group("/journal")
	journal.GET("/notes", h.ListNotes)
	journal.GET("/notes/:date", h.GetNote)
	journal.PUT("/notes/:date", h.SaveNote)
	journal.DELETE("/notes/:id", h.DeleteNote)
	journal.POST("/refresh", h.Refresh)
}
