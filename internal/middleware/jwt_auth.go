package middleware

import (
	"net/http"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// JWTAuthConfig JWT认证配置
type JWTAuthConfig struct {
	AuthService *service.AuthService
	Logger      *zap.Logger
}

// JWTAuth JWT认证中间件
func JWTAuth(config JWTAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := nostd.GetToken(c)
			if tokenString == "" {
				config.Logger.Debug("JWT token missing",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))

				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"code":    http.StatusUnauthorized,
					"message": "未授权：缺少token",
				})
			}

			// 验证Token
			claims, err := config.AuthService.ValidateToken(tokenString)
			if err != nil {
				config.Logger.Warn("invalid JWT token",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()),
					zap.Error(err))

				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"code":    http.StatusUnauthorized,
					"message": "未授权：token无效或已过期",
				})
			}

			// 将用户信息存入Context
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextClaims, claims)

			return next(c)
		}
	}
}
