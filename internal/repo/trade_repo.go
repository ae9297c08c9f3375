package repo

import (
	"context"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, string](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, string]
}

// InsertIgnore 批量写入，已存在的 (account_id, ticket) 保持不变，返回新写入的条数
func (r TradeRepo) InsertIgnore(ctx context.Context, trades []models.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}
	result := r.GetDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "ticket"}},
			DoNothing: true,
		}).
		CreateInBatches(trades, 200)
	return result.RowsAffected, result.Error
}

// FindByAccount 按平仓时间升序，from/to 为零值时不限制
func (r TradeRepo) FindByAccount(ctx context.Context, accountID string, from, to time.Time) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx).Table(r.GetTableName()).Where("account_id = ?", accountID)
	if !from.IsZero() {
		db = db.Where("close_time >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("close_time < ?", to)
	}
	err := db.Order("close_time ASC").Order("ticket ASC").Find(&trades).Error
	return trades, err
}

// LatestCloseTime 最近一笔成交的平仓时间，没有记录时返回零值
func (r TradeRepo) LatestCloseTime(ctx context.Context, accountID string) (time.Time, error) {
	var trade models.Trade
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("close_time DESC").
		Limit(1).
		Find(&trade).Error
	if err != nil {
		return time.Time{}, err
	}
	return trade.CloseTime, nil
}

func (r TradeRepo) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.GetDB(ctx).Where("account_id = ?", accountID).Delete(&models.Trade{}).Error
}
