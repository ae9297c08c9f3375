package service

import (
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/telegram"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"github.com/spf13/cast"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
)

const dailySummaryTemplate = `*{{account}}* {{date}}
盈亏: {{profit}} {{currency}} \({{status}}\)
成交: {{trades}} 笔，盈利 {{wins}} 笔，亏损 {{losses}} 笔
余额: {{balance}}`

// Sender 消息发送
type Sender interface {
	Notify(chatID, msg string) error
}

// NotifyService 同步后推送当日盈亏
type NotifyService struct {
	logger *zap.Logger
	sender Sender
	chatID string
	tpl    *fasttemplate.Template
}

// NewNotifyService tg 为空时不发送任何消息
func NewNotifyService(logger *zap.Logger, conf *config.Config, tg *telegram.Telegram) *NotifyService {
	s := &NotifyService{
		logger: logger,
		chatID: conf.Telegram.ChatID,
		tpl:    fasttemplate.New(dailySummaryTemplate, "{{", "}}"),
	}
	if tg != nil && conf.Telegram.ChatID != "" {
		s.sender = tg
	}
	return s
}

func (s *NotifyService) Enabled() bool {
	return s.sender != nil
}

// RenderDailySummary 生成 MarkdownV2 格式的消息
func (s *NotifyService) RenderDailySummary(account *models.Account, day journal.DailyResult) string {
	name := account.Name
	if name == "" {
		name = cast.ToString(account.Login)
	}
	return s.tpl.ExecuteString(map[string]interface{}{
		"account":  telegram.EscapeMarkdownV2(name),
		"date":     telegram.EscapeMarkdownV2(day.Date),
		"profit":   telegram.EscapeMarkdownV2(cast.ToString(day.Profit)),
		"currency": telegram.EscapeMarkdownV2(account.Currency),
		"status":   telegram.EscapeMarkdownV2(string(day.Status)),
		"trades":   cast.ToString(day.Trades),
		"wins":     cast.ToString(day.Wins),
		"losses":   cast.ToString(day.Losses),
		"balance":  telegram.EscapeMarkdownV2(cast.ToString(account.Balance)),
	})
}

// NotifyDailySummary 发送失败只记录日志
func (s *NotifyService) NotifyDailySummary(account *models.Account, day journal.DailyResult) {
	if !s.Enabled() {
		return
	}
	msg := s.RenderDailySummary(account, day)
	if err := s.sender.Notify(s.chatID, msg); err != nil {
		s.logger.Warn("failed to send daily summary",
			zap.String("account_id", account.ID),
			zap.String("date", day.Date),
			zap.Error(err))
	}
}
