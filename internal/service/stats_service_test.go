package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTrades(t *testing.T, env *testEnv) string {
	t.Helper()
	env.sync.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }
	id := env.connect(t, "u1", 1001)
	env.broker.setDeals(
		deal(1, "EURUSD", 10, time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)),
		deal(2, "EURUSD", -4, time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)),
		deal(3, "XAUUSD", -8, time.Date(2025, 2, 11, 9, 0, 0, 0, time.UTC)),
		deal(4, "XAUUSD", 3, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)),
	)
	_, err := env.sync.SyncAccount(context.Background(), id)
	require.NoError(t, err)
	return id
}

func TestStatsDailyAndRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedTrades(t, env)

	daily, err := env.stats.Daily(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, "2025-02-03", daily[0].Date)
	assert.Equal(t, 6.0, daily[0].Profit)

	daily, err = env.stats.Daily(ctx, "u1", StatsQuery{From: "2025-02-11", To: "2025-02-11"})
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, journal.StatusLoss, daily[0].Status)

	_, err = env.stats.Daily(ctx, "u1", StatsQuery{From: "02/11/2025"})
	assert.ErrorIs(t, err, xe.ErrInvalidDate)

	_, err = env.stats.Daily(ctx, "u2", StatsQuery{})
	assert.ErrorIs(t, err, xe.ErrNoActiveAccount)
}

func TestStatsPeriods(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := seedTrades(t, env)

	weekly, err := env.stats.Weekly(ctx, "u1", StatsQuery{AccountID: id})
	require.NoError(t, err)
	assert.Len(t, weekly, 3)

	monthly, err := env.stats.Monthly(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2025-02", monthly[0].Period)
	assert.Equal(t, -2.0, monthly[0].Profit)

	summary, err := env.stats.Summary(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 1.0, summary.NetProfit)

	cal, err := env.stats.Calendar(ctx, "u1", StatsQuery{}, 2025, 2)
	require.NoError(t, err)
	assert.Len(t, cal.Days, 28)
	assert.Equal(t, -2.0, cal.Total.Profit)

	reports, err := env.stats.Reports(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	assert.Len(t, reports.ByWeekday, 7)
	assert.Len(t, reports.BySymbol, 2)
	assert.Len(t, reports.PnLCurve, 3)

	_, err = env.stats.Weekly(ctx, "u1", StatsQuery{AccountID: "missing"})
	assert.ErrorIs(t, err, xe.ErrNotFound)
}

func TestStatsNetMode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.sync.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }
	id := env.connect(t, "u1", 1001)

	d := deal(1, "EURUSD", 1, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))
	d.Commission = -1.5
	env.broker.setDeals(d)
	_, err := env.sync.SyncAccount(ctx, id)
	require.NoError(t, err)

	gross, err := env.stats.Daily(ctx, "u1", StatsQuery{Mode: journal.ProfitGross})
	require.NoError(t, err)
	assert.Equal(t, journal.StatusWin, gross[0].Status)

	net, err := env.stats.Daily(ctx, "u1", StatsQuery{Mode: journal.ProfitNet})
	require.NoError(t, err)
	assert.Equal(t, journal.StatusLoss, net[0].Status)
	assert.Equal(t, -0.5, net[0].Profit)
}

func TestStatsEquityCurve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := seedTrades(t, env)

	_, err := env.sync.SyncAccount(ctx, id)
	require.NoError(t, err)

	curve, err := env.stats.EquityCurve(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	assert.Len(t, curve, 2)
	assert.Equal(t, 1000.0, curve[0].Balance)
}

func TestStatsSnapshotFallsBackToDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := seedTrades(t, env)

	// 清空缓存后从数据库重建
	require.NoError(t, env.store.Delete(ctx, "u1", id))
	_, err := env.store.GetLastActive(ctx, "u1")
	require.Error(t, err)

	snapshot, err := env.stats.Snapshot(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, id, snapshot.Account.ID)
	assert.Len(t, snapshot.Trades, 4)

	cached, err := env.store.GetLastActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Summary, cached.Summary)

	byID, err := env.stats.Snapshot(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, id, byID.Account.ID)
}

func TestStatsReportsPeakBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := seedTrades(t, env)

	require.NoError(t, env.db.Create(&models.AccountHistory{
		ID:         ulid.Make().String(),
		AccountID:  id,
		Balance:    1250,
		RecordedAt: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}).Error)

	reports, err := env.stats.Reports(ctx, "u1", StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1250.0, reports.PeakBalance)
	assert.InDelta(t, 20, reports.DrawdownFromPeak, 1e-9)
}
