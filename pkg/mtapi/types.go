package mtapi

// 通用类型定义，独立于具体的 MT 数据服务

import (
	"strings"
	"time"
)

// Platform 交易平台
type Platform string

const (
	PlatformMT4 Platform = "mt4"
	PlatformMT5 Platform = "mt5"
)

func (p Platform) String() string {
	return string(p)
}

// Valid 仅支持 mt4/mt5
func (p Platform) Valid() bool {
	return p == PlatformMT4 || p == PlatformMT5
}

// Credentials 登录交易服务器所需的凭证
type Credentials struct {
	Platform Platform `json:"platform"`
	Login    int64    `json:"login"`
	Password string   `json:"password"`
	Server   string   `json:"server"`
}

// AccountSummary 账户资金快照
type AccountSummary struct {
	Login      int64   `json:"login"`
	Server     string  `json:"server"`
	Name       string  `json:"name"`
	Company    string  `json:"company"` // 经纪商名称
	Currency   string  `json:"currency"`
	Leverage   int     `json:"leverage"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"free_margin"`
	Deposit    float64 `json:"deposit"` // 累计入金
}

// DealType 成交类型
type DealType string

const (
	DealTypeBuy     DealType = "buy"
	DealTypeSell    DealType = "sell"
	DealTypeBalance DealType = "balance" // 出入金
	DealTypeCredit  DealType = "credit"
)

// Deal 一笔已平仓的成交
type Deal struct {
	Ticket     int64    `json:"ticket"`
	Symbol     string   `json:"symbol"`
	Type       DealType `json:"type"`
	Volume     float64  `json:"volume"`
	OpenPrice  float64  `json:"open_price"`
	ClosePrice float64  `json:"close_price"`
	Profit     float64  `json:"profit"`
	Commission float64  `json:"commission"`
	Swap       float64  `json:"swap"`
	OpenTime   int64    `json:"open_time"`  // unix 秒
	CloseTime  int64    `json:"close_time"` // unix 秒
	Comment    string   `json:"comment"`
}

// IsTrade 只有买卖成交计入交易统计，出入金等不计入
func (d *Deal) IsTrade() bool {
	t := DealType(strings.ToLower(string(d.Type)))
	return t == DealTypeBuy || t == DealTypeSell
}

// Side 统一为小写的 buy/sell
func (d *Deal) Side() string {
	return strings.ToLower(string(d.Type))
}

func (d *Deal) OpenedAt() time.Time {
	return time.Unix(d.OpenTime, 0).UTC()
}

func (d *Deal) ClosedAt() time.Time {
	return time.Unix(d.CloseTime, 0).UTC()
}

// Server 交易服务器
type Server struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}
