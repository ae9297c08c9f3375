// Package journal 将成交记录聚合为日/周/月统计，供日历和图表使用。
//
// 所有金额累加使用 decimal，保证按日汇总后的总和与逐笔汇总一致。
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Trade 聚合所需的最小成交信息
type Trade struct {
	Ticket     int64     `json:"ticket"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Volume     float64   `json:"volume"`
	Profit     float64   `json:"profit"`
	Commission float64   `json:"commission"`
	Swap       float64   `json:"swap"`
	Time       time.Time `json:"time"` // 平仓时间
}

// ProfitMode 决定统计使用毛利还是净利
type ProfitMode string

const (
	ProfitGross ProfitMode = "gross" // 仅 profit
	ProfitNet   ProfitMode = "net"   // profit + commission + swap
)

// ParseProfitMode 未知取值按毛利处理
func ParseProfitMode(s string) ProfitMode {
	if ProfitMode(s) == ProfitNet {
		return ProfitNet
	}
	return ProfitGross
}

// Status 某一天/某一笔的盈亏状态
type Status string

const (
	StatusWin       Status = "win"
	StatusLoss      Status = "loss"
	StatusBreakeven Status = "breakeven"
	StatusNone      Status = "none" // 当天没有交易
)

// StatusOf 仅由盈亏符号决定
func StatusOf(profit decimal.Decimal) Status {
	switch profit.Sign() {
	case 1:
		return StatusWin
	case -1:
		return StatusLoss
	default:
		return StatusBreakeven
	}
}

type Options struct {
	Location *time.Location
	Mode     ProfitMode
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) amount(t Trade) decimal.Decimal {
	d := decimal.NewFromFloat(t.Profit)
	if o.Mode == ProfitNet {
		d = d.Add(decimal.NewFromFloat(t.Commission)).Add(decimal.NewFromFloat(t.Swap))
	}
	return d
}

// DateOf 返回成交在本地日历中的日期
func (o Options) DateOf(t Trade) string {
	return t.Time.In(o.location()).Format(DateLayout)
}

// TotalProfit 逐笔累加
func TotalProfit(trades []Trade, opts Options) float64 {
	sum := decimal.Zero
	for _, t := range trades {
		sum = sum.Add(opts.amount(t))
	}
	return sum.InexactFloat64()
}
