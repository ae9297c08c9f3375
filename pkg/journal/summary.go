package journal

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Summary 整体绩效统计
type Summary struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakevens   int     `json:"breakevens"`
	WinRate      float64 `json:"win_rate"` // 百分比
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"` // 负数
	NetProfit    float64 `json:"net_profit"`
	ProfitFactor float64 `json:"profit_factor"` // 无亏损时为0
	AverageWin   float64 `json:"average_win"`
	AverageLoss  float64 `json:"average_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`
	Commission   float64 `json:"commission"`
	Swap         float64 `json:"swap"`
	Volume       float64 `json:"volume"`

	TradingDays int          `json:"trading_days"`
	WinningDays int          `json:"winning_days"`
	LosingDays  int          `json:"losing_days"`
	BestDay     *DailyResult `json:"best_day,omitempty"`
	WorstDay    *DailyResult `json:"worst_day,omitempty"`
	MaxDrawdown float64      `json:"max_drawdown"` // 按日累计盈亏的最大回撤（正数）
	SharpeRatio float64      `json:"sharpe_ratio"` // 日盈亏的均值/标准差
}

// Summarize 计算整体统计
func Summarize(trades []Trade, opts Options) Summary {
	var (
		s           Summary
		grossProfit = decimal.Zero
		grossLoss   = decimal.Zero
		commission  = decimal.Zero
		swap        = decimal.Zero
		volume      = decimal.Zero
		largestWin  = decimal.Zero
		largestLoss = decimal.Zero
	)

	for _, t := range trades {
		amount := opts.amount(t)
		s.TotalTrades++
		switch amount.Sign() {
		case 1:
			s.Wins++
			grossProfit = grossProfit.Add(amount)
			if amount.GreaterThan(largestWin) {
				largestWin = amount
			}
		case -1:
			s.Losses++
			grossLoss = grossLoss.Add(amount)
			if amount.LessThan(largestLoss) {
				largestLoss = amount
			}
		default:
			s.Breakevens++
		}
		commission = commission.Add(decimal.NewFromFloat(t.Commission))
		swap = swap.Add(decimal.NewFromFloat(t.Swap))
		volume = volume.Add(decimal.NewFromFloat(t.Volume))
	}

	s.GrossProfit = grossProfit.InexactFloat64()
	s.GrossLoss = grossLoss.InexactFloat64()
	s.NetProfit = grossProfit.Add(grossLoss).InexactFloat64()
	s.LargestWin = largestWin.InexactFloat64()
	s.LargestLoss = largestLoss.InexactFloat64()
	s.Commission = commission.InexactFloat64()
	s.Swap = swap.InexactFloat64()
	s.Volume = volume.InexactFloat64()

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	if s.Wins > 0 {
		s.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(s.Wins))).InexactFloat64()
	}
	if s.Losses > 0 {
		s.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(s.Losses))).InexactFloat64()
		s.ProfitFactor = grossProfit.Div(grossLoss.Abs()).InexactFloat64()
	}

	daily := Daily(trades, opts)
	s.TradingDays = len(daily)
	for i := range daily {
		d := daily[i]
		switch d.Status {
		case StatusWin:
			s.WinningDays++
		case StatusLoss:
			s.LosingDays++
		}
		if s.BestDay == nil || d.Profit > s.BestDay.Profit {
			s.BestDay = &daily[i]
		}
		if s.WorstDay == nil || d.Profit < s.WorstDay.Profit {
			s.WorstDay = &daily[i]
		}
	}
	s.MaxDrawdown = MaxDrawdown(daily)
	s.SharpeRatio = SharpeRatio(daily)
	return s
}

// MaxDrawdown 累计盈亏从峰值回落的最大幅度，峰值从0开始计算
func MaxDrawdown(daily []DailyResult) float64 {
	cumulative := decimal.Zero
	peak := decimal.Zero
	maxDrawdown := decimal.Zero
	for _, d := range daily {
		cumulative = cumulative.Add(decimal.NewFromFloat(d.Profit))
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		if dd := peak.Sub(cumulative); dd.GreaterThan(maxDrawdown) {
			maxDrawdown = dd
		}
	}
	return maxDrawdown.InexactFloat64()
}

// SharpeRatio 日盈亏的均值除以总体标准差，无风险利率按0处理
func SharpeRatio(daily []DailyResult) float64 {
	if len(daily) < 2 {
		return 0
	}
	sum := 0.0
	for _, d := range daily {
		sum += d.Profit
	}
	avg := sum / float64(len(daily))

	variance := 0.0
	for _, d := range daily {
		variance += math.Pow(d.Profit-avg, 2)
	}
	variance /= float64(len(daily))
	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return avg / stdDev
}

// EquityPoint 累计盈亏曲线上的一个点
type EquityPoint struct {
	Date       string  `json:"date"`
	Profit     float64 `json:"profit"`
	Cumulative float64 `json:"cumulative"`
}

// CumulativePnL 按日累计的盈亏曲线
func CumulativePnL(trades []Trade, opts Options) []EquityPoint {
	daily := Daily(trades, opts)
	points := make([]EquityPoint, 0, len(daily))
	cumulative := decimal.Zero
	for _, d := range daily {
		cumulative = cumulative.Add(decimal.NewFromFloat(d.Profit))
		points = append(points, EquityPoint{
			Date:       d.Date,
			Profit:     d.Profit,
			Cumulative: cumulative.InexactFloat64(),
		})
	}
	return points
}

// SymbolStat 按品种统计
type SymbolStat struct {
	Symbol  string  `json:"symbol"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
	Profit  float64 `json:"profit"`
	Volume  float64 `json:"volume"`
}

// BySymbol 按盈亏从高到低排序
func BySymbol(trades []Trade, opts Options) []SymbolStat {
	type acc struct {
		bucket
		volume decimal.Decimal
	}
	index := make(map[string]*acc)
	for _, t := range trades {
		a, ok := index[t.Symbol]
		if !ok {
			a = &acc{bucket: bucket{key: t.Symbol}}
			index[t.Symbol] = a
		}
		a.add(opts.DateOf(t), opts.amount(t))
		a.volume = a.volume.Add(decimal.NewFromFloat(t.Volume))
	}

	stats := make([]SymbolStat, 0, len(index))
	for symbol, a := range index {
		stat := SymbolStat{
			Symbol: symbol,
			Trades: a.trades,
			Wins:   a.wins,
			Losses: a.losses,
			Profit: a.profit.InexactFloat64(),
			Volume: a.volume.InexactFloat64(),
		}
		if a.trades > 0 {
			stat.WinRate = float64(a.wins) / float64(a.trades) * 100
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Profit == stats[j].Profit {
			return stats[i].Symbol < stats[j].Symbol
		}
		return stats[i].Profit > stats[j].Profit
	})
	return stats
}

// WeekdayStat 按星期统计
type WeekdayStat struct {
	Weekday string  `json:"weekday"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Profit  float64 `json:"profit"`
}

// ByWeekday 固定返回周一到周日7项
func ByWeekday(trades []Trade, opts Options) []WeekdayStat {
	var buckets [7]bucket
	loc := opts.location()
	for _, t := range trades {
		local := t.Time.In(loc)
		idx := (int(local.Weekday()) + 6) % 7
		buckets[idx].add(local.Format(DateLayout), opts.amount(t))
	}

	stats := make([]WeekdayStat, 7)
	for i := range buckets {
		stats[i] = WeekdayStat{
			Weekday: time.Weekday((i + 1) % 7).String(),
			Trades:  buckets[i].trades,
			Wins:    buckets[i].wins,
			Losses:  buckets[i].losses,
			Profit:  buckets[i].profit.InexactFloat64(),
		}
	}
	return stats
}
