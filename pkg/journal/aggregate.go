package journal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DailyResult 某个日历日的汇总
type DailyResult struct {
	Date   string  `json:"date"`
	Profit float64 `json:"profit"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Status Status  `json:"status"`
}

// PeriodResult 周/月汇总
type PeriodResult struct {
	Period      string  `json:"period"` // 2025-W09 或 2025-02
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Profit      float64 `json:"profit"`
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TradingDays int     `json:"trading_days"`
	Status      Status  `json:"status"`
}

type bucket struct {
	key    string
	start  time.Time
	end    time.Time
	profit decimal.Decimal
	trades int
	wins   int
	losses int
	days   map[string]struct{}
}

func (b *bucket) add(date string, amount decimal.Decimal) {
	b.profit = b.profit.Add(amount)
	b.trades++
	switch amount.Sign() {
	case 1:
		b.wins++
	case -1:
		b.losses++
	}
	if b.days == nil {
		b.days = make(map[string]struct{})
	}
	b.days[date] = struct{}{}
}

func (b *bucket) status() Status {
	if b.trades == 0 {
		return StatusNone
	}
	return StatusOf(b.profit)
}

func (b *bucket) period() PeriodResult {
	return PeriodResult{
		Period:      b.key,
		Start:       b.start.Format(DateLayout),
		End:         b.end.Format(DateLayout),
		Profit:      b.profit.InexactFloat64(),
		Trades:      b.trades,
		Wins:        b.wins,
		Losses:      b.losses,
		TradingDays: len(b.days),
		Status:      b.status(),
	}
}

// keyFunc 返回分组键及该分组覆盖的起止日期
type keyFunc func(day time.Time) (key string, start, end time.Time)

func group(trades []Trade, opts Options, fn keyFunc) []*bucket {
	loc := opts.location()
	index := make(map[string]*bucket)
	for _, t := range trades {
		local := t.Time.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		key, start, end := fn(day)
		b, ok := index[key]
		if !ok {
			b = &bucket{key: key, start: start, end: end}
			index[key] = b
		}
		b.add(day.Format(DateLayout), opts.amount(t))
	}

	buckets := make([]*bucket, 0, len(index))
	for _, b := range index {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].start.Before(buckets[j].start)
	})
	return buckets
}

func dayKey(day time.Time) (string, time.Time, time.Time) {
	return day.Format(DateLayout), day, day
}

func weekKey(day time.Time) (string, time.Time, time.Time) {
	year, week := day.ISOWeek()
	offset := (int(day.Weekday()) + 6) % 7 // 周一为一周的第一天
	start := day.AddDate(0, 0, -offset)
	return fmt.Sprintf("%04d-W%02d", year, week), start, start.AddDate(0, 0, 6)
}

func monthKey(day time.Time) (string, time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	return start.Format("2006-01"), start, start.AddDate(0, 1, -1)
}

// Daily 按本地日历日分组，结果按日期升序。没有交易的日期不会出现。
func Daily(trades []Trade, opts Options) []DailyResult {
	buckets := group(trades, opts, dayKey)
	results := make([]DailyResult, 0, len(buckets))
	for _, b := range buckets {
		results = append(results, DailyResult{
			Date:   b.key,
			Profit: b.profit.InexactFloat64(),
			Trades: b.trades,
			Wins:   b.wins,
			Losses: b.losses,
			Status: b.status(),
		})
	}
	return results
}

// DailyMap 以日期为键，便于按日查询
func DailyMap(trades []Trade, opts Options) map[string]DailyResult {
	daily := Daily(trades, opts)
	m := make(map[string]DailyResult, len(daily))
	for _, d := range daily {
		m[d.Date] = d
	}
	return m
}

// Weekly 按 ISO 周分组（周一至周日）
func Weekly(trades []Trade, opts Options) []PeriodResult {
	return periods(group(trades, opts, weekKey))
}

// Monthly 按自然月分组
func Monthly(trades []Trade, opts Options) []PeriodResult {
	return periods(group(trades, opts, monthKey))
}

func periods(buckets []*bucket) []PeriodResult {
	results := make([]PeriodResult, 0, len(buckets))
	for _, b := range buckets {
		results = append(results, b.period())
	}
	return results
}

// Calendar 月历视图
type Calendar struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []DailyResult  `json:"days"`  // 当月每一天，无交易的日期 status 为 none
	Weeks []PeriodResult `json:"weeks"` // 当月内按周汇总，起止日期截断到当月
	Total PeriodResult   `json:"total"`
}

// BuildCalendar 生成指定月份的日历，只统计落在该月内的成交
func BuildCalendar(trades []Trade, year int, month time.Month, opts Options) Calendar {
	loc := opts.location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	inMonth := make([]Trade, 0, len(trades))
	for _, t := range trades {
		local := t.Time.In(loc)
		if local.Year() == year && local.Month() == month {
			inMonth = append(inMonth, t)
		}
	}
	byDate := DailyMap(inMonth, opts)

	cal := Calendar{Year: year, Month: int(month)}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := d.Format(DateLayout)
		day, ok := byDate[date]
		if !ok {
			day = DailyResult{Date: date, Status: StatusNone}
		}
		cal.Days = append(cal.Days, day)
	}

	for _, w := range Weekly(inMonth, opts) {
		if w.Start < first.Format(DateLayout) {
			w.Start = first.Format(DateLayout)
		}
		if w.End > last.Format(DateLayout) {
			w.End = last.Format(DateLayout)
		}
		cal.Weeks = append(cal.Weeks, w)
	}
	if cal.Weeks == nil {
		cal.Weeks = []PeriodResult{}
	}

	total := &bucket{key: first.Format("2006-01"), start: first, end: last}
	for _, t := range inMonth {
		total.add(opts.DateOf(t), opts.amount(t))
	}
	cal.Total = total.period()
	return cal
}
