package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// SyncService 从数据服务拉取账户资金和历史成交
type SyncService struct {
	logger *zap.Logger

	*orz.Service
	accountRepo *repo.AccountRepo
	tradeRepo   *repo.TradeRepo
	historyRepo *repo.AccountHistoryRepo

	accountService *AccountService
	notifyService  *NotifyService
	broker         mtapi.Broker
	store          cache.Store
	location       *time.Location
	historyDays    int

	// 同一账户同时只有一个同步在执行，其余调用共享结果
	group singleflight.Group
	now   func() time.Time
}

func NewSyncService(
	db *gorm.DB,
	conf *config.Config,
	location *time.Location,
	broker mtapi.Broker,
	store cache.Store,
	accountService *AccountService,
	notifyService *NotifyService,
	logger *zap.Logger,
) *SyncService {
	historyDays := conf.Sync.HistoryDays
	if historyDays <= 0 {
		historyDays = config.DefaultHistoryDays
	}
	return &SyncService{
		logger:         logger,
		Service:        orz.NewService(db),
		accountRepo:    repo.NewAccountRepo(db),
		tradeRepo:      repo.NewTradeRepo(db),
		historyRepo:    repo.NewAccountHistoryRepo(db),
		accountService: accountService,
		notifyService:  notifyService,
		broker:         broker,
		store:          store,
		location:       location,
		historyDays:    historyDays,
		now:            time.Now,
	}
}

// SyncResult 一次同步的结果
type SyncResult struct {
	AccountID   string          `json:"account_id"`
	NewTrades   int64           `json:"new_trades"`
	TotalTrades int             `json:"total_trades"`
	SyncedAt    time.Time       `json:"synced_at"`
	Snapshot    *cache.Snapshot `json:"snapshot"`
}

// SyncAccount 同步单个账户
func (s *SyncService) SyncAccount(ctx context.Context, accountID string) (*SyncResult, error) {
	// 共享的同步不跟随某一个调用方取消
	v, err, shared := s.group.Do(accountID, func() (interface{}, error) {
		return s.syncAccount(context.WithoutCancel(ctx), accountID)
	})
	if shared {
		s.logger.Debug("sync shared with in-flight call", zap.String("account_id", accountID))
	}
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *SyncService) syncAccount(ctx context.Context, accountID string) (*SyncResult, error) {
	account, err := s.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	result, err := s.pull(ctx, &account)
	if err != nil {
		if e := s.accountRepo.UpdateSyncError(ctx, account.ID, err.Error()); e != nil {
			s.logger.Error("failed to record sync error", zap.String("account_id", account.ID), zap.Error(e))
		}
		s.logger.Warn("account sync failed",
			zap.String("account_id", account.ID),
			zap.Int64("login", account.Login),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("account synced",
		zap.String("account_id", account.ID),
		zap.Int64("new_trades", result.NewTrades),
		zap.Int("total_trades", result.TotalTrades))
	return result, nil
}

func (s *SyncService) pull(ctx context.Context, account *models.Account) (*SyncResult, error) {
	cred, err := s.accountService.Credentials(account)
	if err != nil {
		return nil, err
	}

	summary, err := s.broker.GetAccountSummary(ctx, cred)
	if err != nil {
		return nil, brokerError(err)
	}

	now := s.now().UTC()
	from, err := s.historyFrom(ctx, account.ID, now)
	if err != nil {
		return nil, err
	}
	deals, err := s.broker.GetHistory(ctx, cred, from, now)
	if err != nil {
		return nil, brokerError(err)
	}
	trades := dealsToTrades(account.ID, deals)

	applySummary(account, summary)
	var inserted int64
	err = s.Transaction(ctx, func(ctx context.Context) error {
		n, err := s.tradeRepo.InsertIgnore(ctx, trades)
		if err != nil {
			return fmt.Errorf("insert trades: %w", err)
		}
		inserted = n

		if err := s.accountRepo.UpdateSnapshot(ctx, account, now); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return s.historyRepo.Create(ctx, &models.AccountHistory{
			ID:         ulid.Make().String(),
			AccountID:  account.ID,
			Balance:    account.Balance,
			Equity:     account.Equity,
			Margin:     account.Margin,
			FreeMargin: account.FreeMargin,
			Profit:     account.Profit(),
			RecordedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	account.LastSyncedAt = &now
	account.LastSyncError = ""

	all, err := s.tradeRepo.FindByAccount(ctx, account.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	opts := journal.Options{Location: s.location}
	snapshot := BuildSnapshot(*account, all, opts, now)
	if err := s.store.Save(ctx, account.UserID, snapshot); err != nil {
		s.logger.Warn("failed to save snapshot to cache", zap.String("account_id", account.ID), zap.Error(err))
	}
	if account.IsActive {
		if err := s.store.SetLastActive(ctx, account.UserID, account.ID); err != nil {
			s.logger.Warn("failed to set last active account in cache", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	if inserted > 0 && s.notifyService != nil {
		today := now.In(opts.Location).Format(journal.DateLayout)
		for _, day := range snapshot.Daily {
			if day.Date == today {
				s.notifyService.NotifyDailySummary(account, day)
				break
			}
		}
	}

	return &SyncResult{
		AccountID:   account.ID,
		NewTrades:   inserted,
		TotalTrades: len(all),
		SyncedAt:    now,
		Snapshot:    snapshot,
	}, nil
}

// historyFrom 首次同步拉取 historyDays 天，之后从最近一笔成交前一天开始，重叠部分由唯一索引去重
func (s *SyncService) historyFrom(ctx context.Context, accountID string, now time.Time) (time.Time, error) {
	latest, err := s.tradeRepo.LatestCloseTime(ctx, accountID)
	if err != nil {
		return time.Time{}, err
	}
	if latest.IsZero() {
		return now.AddDate(0, 0, -s.historyDays), nil
	}
	return latest.UTC().Add(-24 * time.Hour), nil
}

// dealsToTrades 只保留买卖成交，出入金等记录忽略
func dealsToTrades(accountID string, deals []*mtapi.Deal) []models.Trade {
	trades := make([]models.Trade, 0, len(deals))
	seen := make(map[int64]struct{}, len(deals))
	for _, d := range deals {
		if d == nil || !d.IsTrade() {
			continue
		}
		if _, ok := seen[d.Ticket]; ok {
			continue
		}
		seen[d.Ticket] = struct{}{}
		trades = append(trades, models.Trade{
			ID:         ulid.Make().String(),
			AccountID:  accountID,
			Ticket:     d.Ticket,
			Symbol:     d.Symbol,
			Side:       d.Side(),
			Volume:     d.Volume,
			OpenPrice:  d.OpenPrice,
			ClosePrice: d.ClosePrice,
			Profit:     d.Profit,
			Commission: d.Commission,
			Swap:       d.Swap,
			OpenTime:   d.OpenedAt(),
			CloseTime:  d.ClosedAt(),
			Comment:    d.Comment,
		})
	}
	return trades
}

// SyncUser 依次同步用户的全部账户
func (s *SyncService) SyncUser(ctx context.Context, userID string) ([]*SyncResult, error) {
	accounts, err := s.accountRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	results := make([]*SyncResult, 0, len(accounts))
	var errs []error
	for _, account := range accounts {
		result, err := s.SyncAccount(ctx, account.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

// SyncAll 定时任务入口，单个账户失败不影响其他账户
func (s *SyncService) SyncAll(ctx context.Context) (synced int, failed int, err error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, account := range accounts {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if _, err := s.SyncAccount(ctx, account.ID); err != nil {
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// BuildSnapshot 由数据库中的成交重新计算缓存快照
func BuildSnapshot(account models.Account, trades []models.Trade, opts journal.Options, generatedAt time.Time) *cache.Snapshot {
	items := models.ToJournalTrades(trades)
	return &cache.Snapshot{
		Account:     account,
		Trades:      items,
		Daily:       journal.Daily(items, opts),
		Weekly:      journal.Weekly(items, opts),
		Summary:     journal.Summarize(items, opts),
		GeneratedAt: generatedAt,
	}
}
