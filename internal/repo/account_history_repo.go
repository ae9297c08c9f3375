package repo

import (
	"context"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewAccountHistoryRepo(db *gorm.DB) *AccountHistoryRepo {
	return &AccountHistoryRepo{
		Repository: orz.NewRepository[models.AccountHistory, string](db),
	}
}

type AccountHistoryRepo struct {
	orz.Repository[models.AccountHistory, string]
}

// FindByAccount 获取账户历史记录（按时间排序），from/to 为零值时不限制
func (r AccountHistoryRepo) FindByAccount(ctx context.Context, accountID string, from, to time.Time) ([]models.AccountHistory, error) {
	var histories []models.AccountHistory
	db := r.GetDB(ctx).Table(r.GetTableName()).Where("account_id = ?", accountID)
	if !from.IsZero() {
		db = db.Where("recorded_at >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("recorded_at < ?", to)
	}
	err := db.Order("recorded_at ASC").Find(&histories).Error
	return histories, err
}

// FindPeakBalance 获取峰值余额记录
func (r AccountHistoryRepo) FindPeakBalance(ctx context.Context, accountID string) (m models.AccountHistory, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("balance DESC").
		First(&m).Error
	return m, err
}

func (r AccountHistoryRepo) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.GetDB(ctx).Where("account_id = ?", accountID).Delete(&models.AccountHistory{}).Error
}
