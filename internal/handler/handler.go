package handler

import (
	"github.com/dushixiang/tradejournal/internal/middleware"
	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/labstack/echo/v4"
)

// currentUserID 由JWT中间件写入
func currentUserID(c echo.Context) string {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	return userID
}

func currentClaims(c echo.Context) *service.JWTClaims {
	claims, _ := c.Get(middleware.ContextClaims).(*service.JWTClaims)
	return claims
}

// bindAndValidate 绑定请求体并校验
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
