package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/middleware"
	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/testutil"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeBroker struct {
	mu    sync.Mutex
	deals []*mtapi.Deal
}

func (b *fakeBroker) Connect(ctx context.Context, cred mtapi.Credentials) (*mtapi.AccountSummary, error) {
	return b.GetAccountSummary(ctx, cred)
}

func (b *fakeBroker) GetAccountSummary(_ context.Context, cred mtapi.Credentials) (*mtapi.AccountSummary, error) {
	if cred.Password != "pw" {
		return nil, &mtapi.Error{StatusCode: http.StatusUnauthorized, Message: "invalid account"}
	}
	return &mtapi.AccountSummary{
		Login:    cred.Login,
		Server:   cred.Server,
		Company:  "Demo Broker",
		Currency: "USD",
		Balance:  1000,
		Equity:   1000,
		Deposit:  1000,
	}, nil
}

func (b *fakeBroker) GetHistory(_ context.Context, cred mtapi.Credentials, from, to time.Time) ([]*mtapi.Deal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deals, nil
}

func (b *fakeBroker) SearchServers(_ context.Context, query string) ([]mtapi.Server, error) {
	return []mtapi.Server{{Name: query + "-Demo", Company: "Demo"}}, nil
}

func (b *fakeBroker) setDeals(deals ...*mtapi.Deal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deals = deals
}

type testServer struct {
	e      *echo.Echo
	db     *gorm.DB
	broker *fakeBroker

	auth     *service.AuthService
	accounts *service.AccountService

	authHandler     *AuthHandler
	accountHandler  *AccountHandler
	journalHandler  *JournalHandler
	statsHandler    *StatsHandler
	playbookHandler *PlaybookHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewTestDB(t)

	conf := &config.Config{}
	conf.Security.EncryptionKey = "test-key"
	conf.Normalize()

	box, err := nostd.NewSecretBox(conf.Security.EncryptionKey)
	require.NoError(t, err)

	broker := &fakeBroker{}
	store := cache.NewMemoryStore(logger, conf.Cache.Prefix)
	notify := service.NewNotifyService(logger, conf, nil)
	auth := service.NewAuthService(logger, db, "secret")
	accounts := service.NewAccountService(db, broker, box, store, logger)
	syncService := service.NewSyncService(db, conf, time.UTC, broker, store, accounts, notify, logger)
	syncLoop := service.NewSyncLoop(conf, syncService, logger)

	e := echo.New()
	v := &nostd.CustomValidator{Validator: validator.New()}
	require.NoError(t, v.TransInit())
	e.Validator = v

	return &testServer{
		e:               e,
		db:              db,
		broker:          broker,
		auth:            auth,
		accounts:        accounts,
		authHandler:     NewAuthHandler(logger, auth),
		accountHandler:  NewAccountHandler(logger, accounts, syncService, syncLoop),
		journalHandler:  NewJournalHandler(logger, service.NewNoteService(db, logger), accounts, syncService),
		statsHandler:    NewStatsHandler(logger, service.NewStatsService(db, time.UTC, accounts, store, logger)),
		playbookHandler: NewPlaybookHandler(logger, service.NewPlaybookService(db, logger)),
	}
}

// call 直接调用 handler，params 为路径参数的 name/value 对
func (s *testServer) call(h echo.HandlerFunc, method, target string, body interface{}, userID string, params ...string) (*httptest.ResponseRecorder, error) {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := s.e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.ContextUserID, userID)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return rec, h(c)
}

func (s *testServer) connect(t *testing.T, userID string, login int64) string {
	t.Helper()
	account, err := s.accounts.Connect(context.Background(), userID, service.ConnectRequest{
		Platform: "mt5",
		Login:    login,
		Password: "pw",
		Server:   "Demo-Server",
	})
	require.NoError(t, err)
	return account.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func closedDeal(ticket int64, symbol string, profit float64, closeTime time.Time) *mtapi.Deal {
	return &mtapi.Deal{
		Ticket:    ticket,
		Symbol:    symbol,
		Type:      mtapi.DealTypeSell,
		Volume:    0.1,
		Profit:    profit,
		OpenTime:  closeTime.Add(-time.Hour).Unix(),
		CloseTime: closeTime.Unix(),
	}
}

// 完整路由：公开的登录注册，其余接口需要令牌
func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	api := s.e.Group("/api")
	s.authHandler.RegisterRoutes(api)
	protected := api.Group("", middleware.JWTAuth(middleware.JWTAuthConfig{
		AuthService: s.auth,
		Logger:      zap.NewNop(),
	}))
	s.authHandler.RegisterProtectedRoutes(protected)
	s.accountHandler.RegisterRoutes(protected)
	s.journalHandler.RegisterRoutes(protected)
	s.statsHandler.RegisterRoutes(protected)
	s.playbookHandler.RegisterRoutes(protected)

	serve := func(method, target, token string, body interface{}) *httptest.ResponseRecorder {
		data, _ := json.Marshal(body)
		req := httptest.NewRequest(method, target, bytes.NewReader(data))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodGet, "/api/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "trader",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login service.LoginResponse
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)

	rec = serve(http.MethodGet, "/api/accounts", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	s.broker.setDeals(closedDeal(1, "EURUSD", 25, time.Now().Add(-2*time.Hour)))
	rec = serve(http.MethodPost, "/api/mt5/connect", login.Token, map[string]interface{}{
		"platform": "mt5",
		"login":    1001,
		"password": "pw",
		"server":   "Demo-Server",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(http.MethodGet, "/api/stats/summary", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_trades":1`)

	rec = serve(http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
