package models

import "time"

// Account 用户连接的 MT 交易账户
type Account struct {
	ID            string     `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID        string     `gorm:"type:varchar(26);not null;uniqueIndex:idx_user_login_server,priority:1" json:"user_id"`
	Platform      string     `gorm:"type:varchar(8);not null" json:"platform"` // mt4/mt5
	Login         int64      `gorm:"not null;uniqueIndex:idx_user_login_server,priority:2" json:"login"`
	Server        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_user_login_server,priority:3" json:"server"`
	Broker        string     `gorm:"type:varchar(100)" json:"broker"`
	Name          string     `gorm:"type:varchar(100)" json:"name"`
	Password      string     `gorm:"type:varchar(512);not null" json:"-"` // 密文
	Currency      string     `gorm:"type:varchar(10)" json:"currency"`
	Leverage      int        `gorm:"type:int" json:"leverage"`
	Balance       float64    `gorm:"type:decimal(20,2)" json:"balance"`
	Equity        float64    `gorm:"type:decimal(20,2)" json:"equity"`
	Margin        float64    `gorm:"type:decimal(20,2)" json:"margin"`
	FreeMargin    float64    `gorm:"type:decimal(20,2)" json:"free_margin"`
	Deposit       float64    `gorm:"type:decimal(20,2)" json:"deposit"` // 累计入金
	IsActive      bool       `gorm:"not null;default:false;index" json:"is_active"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	LastSyncError string     `gorm:"type:varchar(500)" json:"last_sync_error"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// Profit 相对累计入金的盈亏
func (a *Account) Profit() float64 {
	if a.Deposit == 0 {
		return 0
	}
	return a.Balance - a.Deposit
}
