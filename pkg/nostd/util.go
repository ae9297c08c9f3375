package nostd

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const Token = "Journal-Token"

// GetToken 依次从 Authorization、自定义请求头、查询参数和 Cookie 中读取令牌
func GetToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	token := c.Request().Header.Get(Token)
	if len(token) > 0 {
		return token
	}
	token = c.QueryParam(Token)
	if token != "" {
		return token
	}
	cookie, err := c.Cookie(Token)
	if err != nil {
		return ""
	}
	return cookie.Value
}
