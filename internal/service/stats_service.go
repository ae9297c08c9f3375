package service

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsService 日历和图表统计，每次请求都从成交记录重新计算
type StatsService struct {
	logger         *zap.Logger
	accountService *AccountService
	tradeRepo      *repo.TradeRepo
	historyRepo    *repo.AccountHistoryRepo
	store          cache.Store
	location       *time.Location
}

func NewStatsService(db *gorm.DB, location *time.Location, accountService *AccountService, store cache.Store, logger *zap.Logger) *StatsService {
	return &StatsService{
		logger:         logger,
		accountService: accountService,
		tradeRepo:      repo.NewTradeRepo(db),
		historyRepo:    repo.NewAccountHistoryRepo(db),
		store:          store,
		location:       location,
	}
}

// StatsQuery 统计查询条件，日期为 YYYY-MM-DD，包含 From 和 To 当天
type StatsQuery struct {
	AccountID string
	From      string
	To        string
	Mode      journal.ProfitMode
}

type dateRange struct {
	from time.Time
	to   time.Time // 不包含
}

// parseRange 按配置时区解析日期，返回 UTC 时间
func (s *StatsService) parseRange(from, to string) (dateRange, error) {
	var r dateRange
	if from != "" {
		t, err := time.ParseInLocation(journal.DateLayout, from, s.location)
		if err != nil {
			return r, xe.ErrInvalidDate
		}
		r.from = t.UTC()
	}
	if to != "" {
		t, err := time.ParseInLocation(journal.DateLayout, to, s.location)
		if err != nil {
			return r, xe.ErrInvalidDate
		}
		r.to = t.AddDate(0, 0, 1).UTC()
	}
	return r, nil
}

func (s *StatsService) options(mode journal.ProfitMode) journal.Options {
	return journal.Options{Location: s.location, Mode: mode}
}

func (s *StatsService) load(ctx context.Context, userID string, q StatsQuery) (*models.Account, []journal.Trade, error) {
	r, err := s.parseRange(q.From, q.To)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.accountService.Resolve(ctx, userID, q.AccountID)
	if err != nil {
		return nil, nil, err
	}
	trades, err := s.tradeRepo.FindByAccount(ctx, account.ID, r.from, r.to)
	if err != nil {
		return nil, nil, err
	}
	return account, models.ToJournalTrades(trades), nil
}

func (s *StatsService) Daily(ctx context.Context, userID string, q StatsQuery) ([]journal.DailyResult, error) {
	_, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return journal.Daily(trades, s.options(q.Mode)), nil
}

func (s *StatsService) Weekly(ctx context.Context, userID string, q StatsQuery) ([]journal.PeriodResult, error) {
	_, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return journal.Weekly(trades, s.options(q.Mode)), nil
}

func (s *StatsService) Monthly(ctx context.Context, userID string, q StatsQuery) ([]journal.PeriodResult, error) {
	_, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return journal.Monthly(trades, s.options(q.Mode)), nil
}

func (s *StatsService) Summary(ctx context.Context, userID string, q StatsQuery) (*journal.Summary, error) {
	_, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	summary := journal.Summarize(trades, s.options(q.Mode))
	return &summary, nil
}

// Calendar year/month 为 0 时使用当前月份
func (s *StatsService) Calendar(ctx context.Context, userID string, q StatsQuery, year, month int) (*journal.Calendar, error) {
	if year <= 0 || month < 1 || month > 12 {
		now := time.Now().In(s.location)
		year, month = now.Year(), int(now.Month())
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	q.From = first.Format(journal.DateLayout)
	q.To = first.AddDate(0, 1, -1).Format(journal.DateLayout)

	_, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	cal := journal.BuildCalendar(trades, year, time.Month(month), s.options(q.Mode))
	return &cal, nil
}

// Reports 报表页的全部数据
type Reports struct {
	Summary   journal.Summary        `json:"summary"`
	Monthly   []journal.PeriodResult `json:"monthly"`
	BySymbol  []journal.SymbolStat   `json:"by_symbol"`
	ByWeekday []journal.WeekdayStat  `json:"by_weekday"`
	PnLCurve  []journal.EquityPoint  `json:"pnl_curve"`
	// PeakBalance 同步记录中的最高余额，DrawdownFromPeak 为当前余额相对峰值的回撤百分比
	PeakBalance      float64 `json:"peak_balance"`
	DrawdownFromPeak float64 `json:"drawdown_from_peak"`
}

func (s *StatsService) Reports(ctx context.Context, userID string, q StatsQuery) (*Reports, error) {
	account, trades, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	opts := s.options(q.Mode)
	reports := &Reports{
		Summary:   journal.Summarize(trades, opts),
		Monthly:   journal.Monthly(trades, opts),
		BySymbol:  journal.BySymbol(trades, opts),
		ByWeekday: journal.ByWeekday(trades, opts),
		PnLCurve:  journal.CumulativePnL(trades, opts),
	}

	peak := account.Balance
	history, err := s.historyRepo.FindPeakBalance(ctx, account.ID)
	switch {
	case err == nil:
		if history.Balance > peak {
			peak = history.Balance
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	reports.PeakBalance = peak
	if peak > 0 {
		reports.DrawdownFromPeak = (peak - account.Balance) / peak * 100
	}
	return reports, nil
}

// EquityCurve 每次同步记录的资金快照
func (s *StatsService) EquityCurve(ctx context.Context, userID string, q StatsQuery) ([]models.AccountHistory, error) {
	r, err := s.parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	account, err := s.accountService.Resolve(ctx, userID, q.AccountID)
	if err != nil {
		return nil, err
	}
	histories, err := s.historyRepo.FindByAccount(ctx, account.ID, r.from, r.to)
	if err != nil {
		return nil, err
	}
	if histories == nil {
		histories = []models.AccountHistory{}
	}
	return histories, nil
}

// Snapshot 优先读取缓存，未命中时从数据库重建并写回缓存
func (s *StatsService) Snapshot(ctx context.Context, userID, accountID string) (*cache.Snapshot, error) {
	var (
		snapshot *cache.Snapshot
		err      error
	)
	if accountID == "" {
		snapshot, err = s.store.GetLastActive(ctx, userID)
	} else {
		snapshot, err = s.store.Get(ctx, userID, accountID)
	}
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("failed to read snapshot from cache", zap.String("user_id", userID), zap.Error(err))
	}

	account, err := s.accountService.Resolve(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	trades, err := s.tradeRepo.FindByAccount(ctx, account.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	snapshot = BuildSnapshot(*account, trades, s.options(journal.ProfitGross), time.Now().UTC())
	if err := s.store.Save(ctx, userID, snapshot); err != nil {
		s.logger.Warn("failed to save snapshot to cache", zap.String("account_id", account.ID), zap.Error(err))
	}
	if accountID == "" {
		if err := s.store.SetLastActive(ctx, userID, account.ID); err != nil {
			s.logger.Warn("failed to set last active account in cache", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
	return snapshot, nil
}
