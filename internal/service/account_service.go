package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/mtapi"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService 交易账户管理服务
type AccountService struct {
	logger *zap.Logger

	*orz.Service
	*repo.AccountRepo
	tradeRepo   *repo.TradeRepo
	historyRepo *repo.AccountHistoryRepo
	noteRepo    *repo.JournalNoteRepo

	broker mtapi.Broker
	box    *nostd.SecretBox
	store  cache.Store
}

// NewAccountService 创建交易账户服务
func NewAccountService(db *gorm.DB, broker mtapi.Broker, box *nostd.SecretBox, store cache.Store, logger *zap.Logger) *AccountService {
	return &AccountService{
		logger:      logger,
		Service:     orz.NewService(db),
		AccountRepo: repo.NewAccountRepo(db),
		tradeRepo:   repo.NewTradeRepo(db),
		historyRepo: repo.NewAccountHistoryRepo(db),
		noteRepo:    repo.NewJournalNoteRepo(db),
		broker:      broker,
		box:         box,
		store:       store,
	}
}

// ConnectRequest 连接 MT 账户
type ConnectRequest struct {
	Platform string `json:"platform" validate:"required,oneof=mt4 mt5"`
	Login    int64  `json:"login" validate:"required,gt=0"`
	Password string `json:"password" validate:"required"`
	Server   string `json:"server" validate:"required,max=100"`
}

// brokerError 将数据服务的错误转换为业务错误
func brokerError(err error) error {
	var apiErr *mtapi.Error
	if errors.As(err, &apiErr) && apiErr.Rejected() {
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s", xe.ErrBrokerRejected, apiErr.Message)
		}
		return xe.ErrBrokerRejected
	}
	return fmt.Errorf("%w: %v", xe.ErrBrokerUnavailable, err)
}

func notFound(err error, replacement error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return replacement
	}
	return err
}

// Connect 校验凭证后保存账户并设为当前账户。同一 login+server 重复连接时更新密码和资金数据。
func (s *AccountService) Connect(ctx context.Context, userID string, req ConnectRequest) (*models.Account, error) {
	platform := mtapi.Platform(req.Platform)
	if !platform.Valid() {
		return nil, xe.ErrInvalidParams
	}
	cred := mtapi.Credentials{
		Platform: platform,
		Login:    req.Login,
		Password: req.Password,
		Server:   req.Server,
	}
	summary, err := s.broker.Connect(ctx, cred)
	if err != nil {
		s.logger.Warn("mt connect failed",
			zap.String("user_id", userID),
			zap.Int64("login", req.Login),
			zap.String("server", req.Server),
			zap.Error(err))
		return nil, brokerError(err)
	}

	cipherText, err := s.box.Encrypt(req.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	var account models.Account
	err = s.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.AccountRepo.FindByUserAndLogin(ctx, userID, req.Login, req.Server)
		switch {
		case err == nil:
			account = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.Account{
				ID:     ulid.Make().String(),
				UserID: userID,
				Login:  req.Login,
				Server: req.Server,
			}
		default:
			return err
		}

		account.Platform = req.Platform
		account.Password = cipherText
		applySummary(&account, summary)

		if err := s.AccountRepo.DeactivateAllByUser(ctx, userID); err != nil {
			return err
		}
		account.IsActive = true
		return s.AccountRepo.Save(ctx, &account)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SetLastActive(ctx, userID, account.ID); err != nil {
		s.logger.Warn("failed to set last active account in cache", zap.String("account_id", account.ID), zap.Error(err))
	}

	s.logger.Info("mt account connected",
		zap.String("user_id", userID),
		zap.String("account_id", account.ID),
		zap.Int64("login", account.Login),
		zap.String("server", account.Server))
	return &account, nil
}

func applySummary(account *models.Account, summary *mtapi.AccountSummary) {
	if summary == nil {
		return
	}
	if summary.Name != "" {
		account.Name = summary.Name
	}
	if summary.Company != "" {
		account.Broker = summary.Company
	}
	if summary.Currency != "" {
		account.Currency = summary.Currency
	}
	if summary.Leverage > 0 {
		account.Leverage = summary.Leverage
	}
	account.Balance = summary.Balance
	account.Equity = summary.Equity
	account.Margin = summary.Margin
	account.FreeMargin = summary.FreeMargin
	if summary.Deposit > 0 {
		account.Deposit = summary.Deposit
	}
}

// List 用户的全部账户
func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := s.AccountRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// Get 只能获取自己的账户
func (s *AccountService) Get(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := s.AccountRepo.FindByUserAndID(ctx, userID, accountID)
	if err != nil {
		return nil, notFound(err, xe.ErrNotFound)
	}
	return &account, nil
}

// GetActive 当前账户，未连接任何账户时返回 ErrNoActiveAccount
func (s *AccountService) GetActive(ctx context.Context, userID string) (*models.Account, error) {
	account, err := s.AccountRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, xe.ErrNoActiveAccount)
	}
	return &account, nil
}

// Resolve accountID 为空时使用当前账户
func (s *AccountService) Resolve(ctx context.Context, userID, accountID string) (*models.Account, error) {
	if accountID == "" {
		return s.GetActive(ctx, userID)
	}
	return s.Get(ctx, userID, accountID)
}

// SetActive 切换当前账户，同一用户同时只有一个激活账户
func (s *AccountService) SetActive(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := s.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.AccountRepo.DeactivateAllByUser(ctx, userID); err != nil {
			return err
		}
		return s.AccountRepo.Activate(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}
	account.IsActive = true

	if err := s.store.SetLastActive(ctx, userID, accountID); err != nil {
		s.logger.Warn("failed to set last active account in cache", zap.String("account_id", accountID), zap.Error(err))
	}
	return account, nil
}

// Delete 删除账户及其成交和资金记录，笔记保留但解除关联
func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	if _, err := s.Get(ctx, userID, accountID); err != nil {
		return err
	}

	err := s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.tradeRepo.DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		if err := s.historyRepo.DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		if err := s.detachNotes(ctx, accountID); err != nil {
			return err
		}
		return s.AccountRepo.DeleteById(ctx, accountID)
	})
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, accountID); err != nil {
		s.logger.Warn("failed to delete cached snapshot", zap.String("account_id", accountID), zap.Error(err))
	}
	s.logger.Info("mt account deleted", zap.String("user_id", userID), zap.String("account_id", accountID))
	return nil
}

// detachNotes 账户删除后笔记转为不关联账户；同一天已有未关联笔记时合并进去
func (s *AccountService) detachNotes(ctx context.Context, accountID string) error {
	notes, err := s.noteRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, note := range notes {
		general, err := s.noteRepo.FindByDate(ctx, note.UserID, note.TradeDate, "")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.noteRepo.Unlink(ctx, note.ID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		mergeNote(&general, note)
		if err := s.noteRepo.Save(ctx, &general); err != nil {
			return err
		}
		if err := s.noteRepo.DeleteById(ctx, note.ID); err != nil {
			return err
		}
		s.logger.Debug("journal note merged",
			zap.String("user_id", note.UserID), zap.String("trade_date", note.TradeDate))
	}
	return nil
}

// mergeNote 正文追加在后面，标题和心情只补空缺
func mergeNote(dst *models.JournalNote, src models.JournalNote) {
	switch {
	case dst.Content == "":
		dst.Content = src.Content
	case src.Content != "":
		dst.Content = dst.Content + "\n\n" + src.Content
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Mood == "" {
		dst.Mood = src.Mood
	}
	dst.Tags = cleanTags(append(append([]string{}, dst.Tags...), src.Tags...))
}

// Credentials 解密后的登录凭证，仅在请求数据服务时使用
func (s *AccountService) Credentials(account *models.Account) (mtapi.Credentials, error) {
	password, err := s.box.Decrypt(account.Password)
	if err != nil {
		return mtapi.Credentials{}, fmt.Errorf("decrypt password of account %s: %w", account.ID, err)
	}
	return mtapi.Credentials{
		Platform: mtapi.Platform(account.Platform),
		Login:    account.Login,
		Password: password,
		Server:   account.Server,
	}, nil
}

// SearchServers 按名称搜索交易服务器
func (s *AccountService) SearchServers(ctx context.Context, query string) ([]mtapi.Server, error) {
	servers, err := s.broker.SearchServers(ctx, query)
	if err != nil {
		return nil, brokerError(err)
	}
	return servers, nil
}
