package handler

import (
	"net/http"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	logger      *zap.Logger
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(logger *zap.Logger, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Register 注册
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(ctx, req, c.RealIP())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(ctx, req, c.RealIP())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout 注销当前令牌
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	h.authService.Logout(currentClaims(c))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "已退出登录",
	})
}

// GetCurrentUser 获取当前用户信息
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.authService.GetCurrentUser(ctx, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword 修改密码
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := currentUserID(c)
	if err := h.authService.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	h.logger.Info("password changed successfully", zap.String("user_id", userID))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "密码修改成功",
	})
}

// RegisterRoutes 注册公开路由
func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.GetCurrentUser)
	auth.POST("/change-password", h.ChangePassword)
}
