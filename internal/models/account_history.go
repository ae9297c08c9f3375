package models

import "time"

// AccountHistory 每次同步记录一条账户资金快照，用于净值曲线
type AccountHistory struct {
	ID         string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	AccountID  string    `gorm:"type:varchar(26);not null;index:idx_history_account_time,priority:1" json:"account_id"`
	Balance    float64   `gorm:"type:decimal(20,2);not null" json:"balance"`
	Equity     float64   `gorm:"type:decimal(20,2)" json:"equity"`
	Margin     float64   `gorm:"type:decimal(20,2)" json:"margin"`
	FreeMargin float64   `gorm:"type:decimal(20,2)" json:"free_margin"`
	Profit     float64   `gorm:"type:decimal(20,2)" json:"profit"` // 余额 - 累计入金
	RecordedAt time.Time `gorm:"not null;index:idx_history_account_time,priority:2" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (AccountHistory) TableName() string {
	return "account_histories"
}
