package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalNoteLifecycle(t *testing.T) {
	s := newTestServer(t)
	date := "2025-02-24"

	rec, err := s.call(s.journalHandler.SaveNote, http.MethodPut, "/api/journal/notes/"+date, map[string]interface{}{
		"title":   " 追单亏损 ",
		"content": "NFP 前不该开仓",
		"mood":    "tilted",
		"tags":    []string{"fomo", " fomo ", "news"},
	}, "u1", "date", date)
	require.NoError(t, err)
	var saved models.JournalNote
	decode(t, rec, &saved)
	assert.Equal(t, "追单亏损", saved.Title)
	assert.Equal(t, []string{"fomo", "news"}, []string(saved.Tags))

	// 同一天再次保存覆盖原内容
	_, err = s.call(s.journalHandler.SaveNote, http.MethodPut, "/api/journal/notes/"+date, map[string]interface{}{
		"title": "复盘",
	}, "u1", "date", date)
	require.NoError(t, err)

	rec, err = s.call(s.journalHandler.GetNote, http.MethodGet, "/api/journal/notes/"+date, nil, "u1", "date", date)
	require.NoError(t, err)
	var got models.JournalNote
	decode(t, rec, &got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "复盘", got.Title)

	rec, err = s.call(s.journalHandler.ListNotes, http.MethodGet, "/api/journal/notes?from=2025-02-01&to=2025-02-28", nil, "u1")
	require.NoError(t, err)
	var notes []models.JournalNote
	decode(t, rec, &notes)
	assert.Len(t, notes, 1)

	_, err = s.call(s.journalHandler.DeleteNote, http.MethodDelete, "/api/journal/notes/"+saved.ID, nil, "u2", "id", saved.ID)
	assert.True(t, errors.Is(err, xe.ErrNotFound))

	rec, err = s.call(s.journalHandler.DeleteNote, http.MethodDelete, "/api/journal/notes/"+saved.ID, nil, "u1", "id", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = s.call(s.journalHandler.GetNote, http.MethodGet, "/api/journal/notes/"+date, nil, "u1", "date", date)
	assert.True(t, errors.Is(err, xe.ErrNotFound))
}

func TestJournalNoteValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(s.journalHandler.SaveNote, http.MethodPut, "/api/journal/notes/2025-2-1", map[string]interface{}{
		"title": "x",
	}, "u1", "date", "2025-2-1")
	assert.True(t, errors.Is(err, xe.ErrInvalidDate))

	_, err = s.call(s.journalHandler.ListNotes, http.MethodGet, "/api/journal/notes?from=yesterday", nil, "u1")
	assert.True(t, errors.Is(err, xe.ErrInvalidDate))

	// 关联别人的账户
	other := s.connect(t, "u2", 2001)
	_, err = s.call(s.journalHandler.SaveNote, http.MethodPut, "/api/journal/notes/2025-02-24", map[string]interface{}{
		"account_id": other,
	}, "u1", "date", "2025-02-24")
	assert.True(t, errors.Is(err, xe.ErrPermissionDenied))
}

func TestJournalRefresh(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(s.journalHandler.Refresh, http.MethodPost, "/api/journal/refresh", nil, "u1")
	assert.True(t, errors.Is(err, xe.ErrNoActiveAccount))

	id := s.connect(t, "u1", 1001)
	now := time.Now()
	s.broker.setDeals(
		closedDeal(1, "EURUSD", 10, now.Add(-2*time.Hour)),
		closedDeal(2, "EURUSD", -3, now.Add(-time.Hour)),
	)

	rec, err := s.call(s.journalHandler.Refresh, http.MethodPost, "/api/journal/refresh", nil, "u1")
	require.NoError(t, err)
	var snapshot cache.Snapshot
	decode(t, rec, &snapshot)
	assert.Equal(t, id, snapshot.Account.ID)
	assert.Len(t, snapshot.Trades, 2)
	assert.Equal(t, 2, snapshot.Summary.TotalTrades)
}
