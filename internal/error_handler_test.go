package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", xe.ErrNotFound, http.StatusNotFound},
		{"no active account", xe.ErrNoActiveAccount, http.StatusNotFound},
		{"invalid token", xe.ErrInvalidToken, http.StatusUnauthorized},
		{"permission", xe.ErrPermissionDenied, http.StatusForbidden},
		{"duplicate", xe.ErrAccountAlreadyUsed, http.StatusConflict},
		{"broker rejected", fmt.Errorf("%w: invalid account", xe.ErrBrokerRejected), http.StatusBadRequest},
		{"broker down", fmt.Errorf("%w: timeout", xe.ErrBrokerUnavailable), http.StatusBadGateway},
		{"bad date", xe.ErrInvalidDate, http.StatusBadRequest},
		{"validation", echo.NewHTTPError(http.StatusBadRequest, "login is required"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

			h := WithErrorHandler(zap.NewNop())(func(c echo.Context) error {
				return tt.err
			})
			assert.NoError(t, h(c))
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message"`)
		})
	}
}
