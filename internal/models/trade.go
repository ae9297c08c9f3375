package models

import (
	"time"

	"github.com/dushixiang/tradejournal/pkg/journal"
)

// Trade 已平仓的成交记录，同步后不再修改
type Trade struct {
	ID         string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	AccountID  string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_account_ticket,priority:1;index:idx_account_close,priority:1" json:"account_id"`
	Ticket     int64     `gorm:"not null;uniqueIndex:idx_account_ticket,priority:2" json:"ticket"` // 经纪商订单号
	Symbol     string    `gorm:"type:varchar(32);not null;index" json:"symbol"`                    // 交易品种
	Side       string    `gorm:"type:varchar(10);not null" json:"side"`                            // buy/sell
	Volume     float64   `gorm:"type:decimal(20,2);not null" json:"volume"`                        // 手数
	OpenPrice  float64   `gorm:"type:decimal(20,8)" json:"open_price"`
	ClosePrice float64   `gorm:"type:decimal(20,8)" json:"close_price"`
	Profit     float64   `gorm:"type:decimal(20,2)" json:"profit"`
	Commission float64   `gorm:"type:decimal(20,2)" json:"commission"`
	Swap       float64   `gorm:"type:decimal(20,2)" json:"swap"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `gorm:"not null;index:idx_account_close,priority:2" json:"close_time"` // 统计按平仓时间
	Comment    string    `gorm:"type:varchar(255)" json:"comment"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}

// NetProfit 含手续费和隔夜利息
func (t *Trade) NetProfit() float64 {
	return t.Profit + t.Commission + t.Swap
}

func (t *Trade) ToJournal() journal.Trade {
	return journal.Trade{
		Ticket:     t.Ticket,
		Symbol:     t.Symbol,
		Side:       t.Side,
		Volume:     t.Volume,
		Profit:     t.Profit,
		Commission: t.Commission,
		Swap:       t.Swap,
		Time:       t.CloseTime,
	}
}

// ToJournalTrades 转换为聚合使用的结构
func ToJournalTrades(trades []Trade) []journal.Trade {
	items := make([]journal.Trade, 0, len(trades))
	for i := range trades {
		items = append(items, trades[i].ToJournal())
	}
	return items
}
