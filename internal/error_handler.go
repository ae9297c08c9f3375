package internal

import (
	"errors"
	"net/http"

	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusOf 业务错误对应的 HTTP 状态码，未列出的统一为 400
func statusOf(err error) int {
	switch {
	case errors.Is(err, xe.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, xe.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, xe.ErrNotFound), errors.Is(err, xe.ErrNoActiveAccount):
		return http.StatusNotFound
	case errors.Is(err, xe.ErrAccountAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, xe.ErrBrokerUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func WithErrorHandler(logger *zap.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var he *echo.HTTPError
			if errors.As(err, &he) {
				return c.JSON(he.Code, orz.Map{
					"code":    he.Code,
					"message": he.Message,
				})
			}

			var oe *orz.Error
			if errors.As(err, &oe) {
				code := statusOf(err)
				if code >= http.StatusInternalServerError {
					logger.Warn("api", zap.String("path", c.Path()), zap.Error(err))
				}
				return c.JSON(code, orz.Map{
					"code":    oe.Code,
					"message": err.Error(),
				})
			}

			logger.Error("api", zap.String("path", c.Path()), zap.Error(err))

			return c.JSON(http.StatusInternalServerError, orz.Map{
				"code":    http.StatusInternalServerError,
				"message": err.Error(),
			})
		}
	}
}
