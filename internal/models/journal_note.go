package models

import (
	"time"

	"gorm.io/datatypes"
)

// JournalNote 按交易日记录的复盘笔记
type JournalNote struct {
	ID        string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID    string                      `gorm:"type:varchar(26);not null;uniqueIndex:idx_note_user_date_account,priority:1" json:"user_id"`
	TradeDate string                      `gorm:"type:varchar(10);not null;uniqueIndex:idx_note_user_date_account,priority:2" json:"trade_date"`            // YYYY-MM-DD
	AccountID string                      `gorm:"type:varchar(26);not null;default:'';uniqueIndex:idx_note_user_date_account,priority:3" json:"account_id"` // 为空表示不关联账户
	Title     string                      `gorm:"type:varchar(200)" json:"title"`
	Content   string                      `gorm:"type:text" json:"content"`
	Mood      string                      `gorm:"type:varchar(20)" json:"mood"` // 情绪标记
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (JournalNote) TableName() string {
	return "journal_notes"
}
