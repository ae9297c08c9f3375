package repo

import (
	"context"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewJournalNoteRepo(db *gorm.DB) *JournalNoteRepo {
	return &JournalNoteRepo{
		Repository: orz.NewRepository[models.JournalNote, string](db),
	}
}

type JournalNoteRepo struct {
	orz.Repository[models.JournalNote, string]
}

// FindByUser 日期为 YYYY-MM-DD 字符串，可直接按字典序比较；为空时不限制
func (r JournalNoteRepo) FindByUser(ctx context.Context, userID, from, to string) ([]models.JournalNote, error) {
	var notes []models.JournalNote
	db := r.GetDB(ctx).Table(r.GetTableName()).Where("user_id = ?", userID)
	if from != "" {
		db = db.Where("trade_date >= ?", from)
	}
	if to != "" {
		db = db.Where("trade_date <= ?", to)
	}
	err := db.Order("trade_date DESC").Find(&notes).Error
	return notes, err
}

func (r JournalNoteRepo) FindByDate(ctx context.Context, userID, tradeDate, accountID string) (m models.JournalNote, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND trade_date = ? AND account_id = ?", userID, tradeDate, accountID).
		First(&m).Error
	return m, err
}

func (r JournalNoteRepo) FindByUserAndID(ctx context.Context, userID, id string) (m models.JournalNote, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND id = ?", userID, id).
		First(&m).Error
	return m, err
}

func (r JournalNoteRepo) FindByAccount(ctx context.Context, accountID string) ([]models.JournalNote, error) {
	var notes []models.JournalNote
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("trade_date ASC").
		Find(&notes).Error
	return notes, err
}

// Unlink 笔记保留，但不再关联任何账户
func (r JournalNoteRepo) Unlink(ctx context.Context, id string) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Update("account_id", "").Error
}
