package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/service"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountConnect(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	s.broker.setDeals(
		closedDeal(1, "EURUSD", 12.5, now.Add(-3*time.Hour)),
		closedDeal(2, "XAUUSD", -4, now.Add(-2*time.Hour)),
		&mtapi.Deal{Ticket: 3, Type: mtapi.DealTypeBalance, Profit: 1000, CloseTime: now.Add(-time.Hour).Unix()},
	)

	rec, err := s.call(s.accountHandler.Connect, http.MethodPost, "/api/mt5/connect", map[string]interface{}{
		"login":    1001,
		"password": "pw",
		"server":   " Demo-Server ",
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"password"`)

	var resp struct {
		Account models.Account     `json:"account"`
		Sync    service.SyncResult `json:"sync"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "mt5", resp.Account.Platform)
	assert.Equal(t, "Demo-Server", resp.Account.Server)
	assert.True(t, resp.Account.IsActive)
	assert.Equal(t, int64(2), resp.Sync.NewTrades)
	assert.Equal(t, 2, resp.Sync.TotalTrades)
}

func TestAccountConnectRejected(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(s.accountHandler.Connect, http.MethodPost, "/api/mt5/connect", map[string]interface{}{
		"platform": "mt5",
		"login":    1001,
		"password": "wrong",
		"server":   "Demo-Server",
	}, "u1")
	assert.True(t, errors.Is(err, xe.ErrBrokerRejected))

	_, err = s.call(s.accountHandler.Connect, http.MethodPost, "/api/mt5/connect", map[string]interface{}{
		"platform": "mt6",
		"login":    1001,
		"password": "pw",
		"server":   "Demo-Server",
	}, "u1")
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAccountListAndActive(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(s.accountHandler.Active, http.MethodGet, "/api/accounts/active", nil, "u1")
	assert.True(t, errors.Is(err, xe.ErrNoActiveAccount))

	first := s.connect(t, "u1", 1001)
	second := s.connect(t, "u1", 1002)

	rec, err := s.call(s.accountHandler.List, http.MethodGet, "/api/accounts", nil, "u1")
	require.NoError(t, err)
	var accounts []models.Account
	decode(t, rec, &accounts)
	assert.Len(t, accounts, 2)

	rec, err = s.call(s.accountHandler.Active, http.MethodGet, "/api/accounts/active", nil, "u1")
	require.NoError(t, err)
	var active models.Account
	decode(t, rec, &active)
	assert.Equal(t, second, active.ID)

	_, err = s.call(s.accountHandler.SetActive, http.MethodPut, "/api/accounts/"+first+"/active", nil, "u1", "id", first)
	require.NoError(t, err)

	rec, err = s.call(s.accountHandler.Active, http.MethodGet, "/api/accounts/active", nil, "u1")
	require.NoError(t, err)
	decode(t, rec, &active)
	assert.Equal(t, first, active.ID)
}

func TestAccountDeleteScopedToUser(t *testing.T) {
	s := newTestServer(t)
	id := s.connect(t, "u1", 1001)

	_, err := s.call(s.accountHandler.Delete, http.MethodDelete, "/api/accounts/"+id, nil, "u2", "id", id)
	assert.True(t, errors.Is(err, xe.ErrNotFound))

	_, err = s.call(s.accountHandler.Sync, http.MethodPost, "/api/accounts/"+id+"/sync", nil, "u2", "id", id)
	assert.True(t, errors.Is(err, xe.ErrNotFound))

	rec, err := s.call(s.accountHandler.Delete, http.MethodDelete, "/api/accounts/"+id, nil, "u1", "id", id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, s.db.Model(&models.Account{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAccountSync(t *testing.T) {
	s := newTestServer(t)
	id := s.connect(t, "u1", 1001)
	s.broker.setDeals(closedDeal(7, "GBPUSD", 3, time.Now().Add(-time.Hour)))

	rec, err := s.call(s.accountHandler.Sync, http.MethodPost, "/api/accounts/"+id+"/sync", nil, "u1", "id", id)
	require.NoError(t, err)
	var result service.SyncResult
	decode(t, rec, &result)
	assert.Equal(t, id, result.AccountID)
	assert.Equal(t, int64(1), result.NewTrades)

	rec, err = s.call(s.accountHandler.SyncStatus, http.MethodGet, "/api/sync/status", nil, "u1")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"is_running":false`)
}

func TestSearchServers(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(s.accountHandler.SearchServers, http.MethodGet, "/api/servers/search?q=a", nil, "u1")
	assert.True(t, errors.Is(err, xe.ErrInvalidParams))

	rec, err := s.call(s.accountHandler.SearchServers, http.MethodGet, "/api/servers/search?q=icm", nil, "u1")
	require.NoError(t, err)
	var servers []mtapi.Server
	decode(t, rec, &servers)
	require.Len(t, servers, 1)
	assert.Equal(t, "icm-Demo", servers[0].Name)
}
