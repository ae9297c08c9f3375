package repo

import (
	"context"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{
		Repository: orz.NewRepository[models.Account, string](db),
	}
}

type AccountRepo struct {
	orz.Repository[models.Account, string]
}

// FindByUser 用户的全部账户，按创建时间排序
func (r AccountRepo) FindByUser(ctx context.Context, userID string) ([]models.Account, error) {
	var accounts []models.Account
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

// FindByUserAndID 只返回属于该用户的账户
func (r AccountRepo) FindByUserAndID(ctx context.Context, userID, id string) (m models.Account, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND id = ?", userID, id).
		First(&m).Error
	return m, err
}

func (r AccountRepo) FindByUserAndLogin(ctx context.Context, userID string, login int64, server string) (m models.Account, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND login = ? AND server = ?", userID, login, server).
		First(&m).Error
	return m, err
}

// FindActiveByUser 用户当前激活的账户
func (r AccountRepo) FindActiveByUser(ctx context.Context, userID string) (m models.Account, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&m).Error
	return m, err
}

// DeactivateAllByUser 取消用户所有账户的激活状态
func (r AccountRepo) DeactivateAllByUser(ctx context.Context, userID string) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}

func (r AccountRepo) Activate(ctx context.Context, id string) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Update("is_active", true).Error
}

// UpdateSnapshot 同步成功后写入最新资金数据并清空错误
func (r AccountRepo) UpdateSnapshot(ctx context.Context, account *models.Account, syncedAt time.Time) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"name":            account.Name,
			"broker":          account.Broker,
			"currency":        account.Currency,
			"leverage":        account.Leverage,
			"balance":         account.Balance,
			"equity":          account.Equity,
			"margin":          account.Margin,
			"free_margin":     account.FreeMargin,
			"deposit":         account.Deposit,
			"last_synced_at":  syncedAt,
			"last_sync_error": "",
		}).Error
}

// UpdateSyncError 记录最近一次同步失败原因
func (r AccountRepo) UpdateSyncError(ctx context.Context, id string, message string) error {
	if len(message) > 500 {
		message = message[:500]
	}
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Update("last_sync_error", message).Error
}
