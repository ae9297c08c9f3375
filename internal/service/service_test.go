package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/testutil"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBroker 内存中的数据服务
type fakeBroker struct {
	mu       sync.Mutex
	password string
	summary  mtapi.AccountSummary
	deals    []*mtapi.Deal
	failWith error

	historyCalls atomic.Int32
	lastFrom     time.Time
	// block 非空时 GetHistory 会等待它关闭
	block chan struct{}
}

func (b *fakeBroker) check(cred mtapi.Credentials) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	if cred.Password != b.password {
		return &mtapi.Error{StatusCode: 401, Message: "invalid account"}
	}
	return nil
}

func (b *fakeBroker) Connect(ctx context.Context, cred mtapi.Credentials) (*mtapi.AccountSummary, error) {
	return b.GetAccountSummary(ctx, cred)
}

func (b *fakeBroker) GetAccountSummary(_ context.Context, cred mtapi.Credentials) (*mtapi.AccountSummary, error) {
	if err := b.check(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	summary := b.summary
	summary.Login = cred.Login
	summary.Server = cred.Server
	return &summary, nil
}

func (b *fakeBroker) GetHistory(_ context.Context, cred mtapi.Credentials, from, to time.Time) ([]*mtapi.Deal, error) {
	b.historyCalls.Add(1)
	if b.block != nil {
		<-b.block
	}
	if err := b.check(cred); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFrom = from
	var deals []*mtapi.Deal
	for _, d := range b.deals {
		if d.CloseTime >= from.Unix() && d.CloseTime <= to.Unix() {
			deals = append(deals, d)
		}
	}
	return deals, nil
}

func (b *fakeBroker) SearchServers(_ context.Context, query string) ([]mtapi.Server, error) {
	return []mtapi.Server{{Name: query + "-Demo", Company: "Demo"}}, nil
}

func (b *fakeBroker) setDeals(deals ...*mtapi.Deal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deals = deals
}

type fakeSender struct {
	mu       sync.Mutex
	messages []string
}

func (s *fakeSender) Notify(chatID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	conf     *config.Config
	broker   *fakeBroker
	store    *cache.MemoryStore
	sender   *fakeSender
	auth     *AuthService
	accounts *AccountService
	sync     *SyncService
	stats    *StatsService
	notes    *NoteService
	playbook *PlaybookService
	notify   *NotifyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewTestDB(t)

	conf := &config.Config{}
	conf.Security.EncryptionKey = "test-key"
	conf.Telegram.ChatID = "42"
	conf.Normalize()

	box, err := nostd.NewSecretBox(conf.Security.EncryptionKey)
	require.NoError(t, err)

	broker := &fakeBroker{
		password: "pw",
		summary: mtapi.AccountSummary{
			Name:       "Demo Trader",
			Company:    "Demo Broker",
			Currency:   "USD",
			Leverage:   100,
			Balance:    1000,
			Equity:     1000,
			FreeMargin: 1000,
			Deposit:    1000,
		},
	}
	store := cache.NewMemoryStore(logger, conf.Cache.Prefix)
	sender := &fakeSender{}

	notify := NewNotifyService(logger, conf, nil)
	notify.sender = sender

	accounts := NewAccountService(db, broker, box, store, logger)
	syncService := NewSyncService(db, conf, time.UTC, broker, store, accounts, notify, logger)

	return &testEnv{
		db:       db,
		conf:     conf,
		broker:   broker,
		store:    store,
		sender:   sender,
		auth:     NewAuthService(logger, db, "secret"),
		accounts: accounts,
		sync:     syncService,
		stats:    NewStatsService(db, time.UTC, accounts, store, logger),
		notes:    NewNoteService(db, logger),
		playbook: NewPlaybookService(db, logger),
		notify:   notify,
	}
}

func (e *testEnv) connect(t *testing.T, userID string, login int64) string {
	t.Helper()
	account, err := e.accounts.Connect(context.Background(), userID, ConnectRequest{
		Platform: "mt5",
		Login:    login,
		Password: "pw",
		Server:   "Demo-Server",
	})
	require.NoError(t, err)
	return account.ID
}

func deal(ticket int64, symbol string, profit float64, closeTime time.Time) *mtapi.Deal {
	return &mtapi.Deal{
		Ticket:    ticket,
		Symbol:    symbol,
		Type:      mtapi.DealTypeBuy,
		Volume:    0.1,
		Profit:    profit,
		OpenTime:  closeTime.Add(-time.Hour).Unix(),
		CloseTime: closeTime.Unix(),
	}
}
