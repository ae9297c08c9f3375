package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/testutil"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTAuth(t *testing.T) {
	db := testutil.NewTestDB(t)
	auth := service.NewAuthService(zap.NewNop(), db, "secret")
	resp, err := auth.Register(context.Background(), service.RegisterRequest{Username: "alice", Password: "secret1"}, "")
	require.NoError(t, err)

	e := echo.New()
	mw := JWTAuth(JWTAuthConfig{AuthService: auth, Logger: zap.NewNop()})
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(ContextUserID).(string))
	})

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+resp.Token) }, http.StatusOK},
		{"header", func(r *http.Request) { r.Header.Set(nostd.Token, resp.Token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: nostd.Token, Value: resp.Token}) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, resp.User.ID, rec.Body.String())
			}
		})
	}
}
