package telegram

import (
	"net/http"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Settings struct {
	Token  string
	Client *http.Client
}

type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
}

func NewTelegram(logger *zap.Logger, settings Settings) (*Telegram, error) {

	poller := &tele.LongPoller{Timeout: 10 * time.Second}

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdownV2,
		Token:     settings.Token,
		Poller:    poller,
		Client:    settings.Client,
	})
	if err != nil {
		return nil, err
	}

	client.Use(middleware.AutoRespond())

	err = client.SetCommands([]tele.Command{
		{Text: "/start", Description: "显示帮助信息"},
		{Text: "/status", Description: "查看同步状态"},
	})
	if err != nil {
		return nil, err
	}

	bot := &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}

	client.Handle("/start", func(c tele.Context) error {
		return c.Send(EscapeMarkdownV2("交易日志机器人：每次同步到新成交后推送当日盈亏。发送 /status 查看同步状态。"))
	})

	return bot, nil
}

// HandleStatus 注册 /status 命令，回复 fn 返回的文本，需在 Start 之前调用
func (r *Telegram) HandleStatus(fn func() string) {
	r.client.Handle("/status", func(c tele.Context) error {
		return c.Send(fn(), &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
	})
}

func (r *Telegram) Start() {
	go r.client.Start()
}

func (r *Telegram) Stop() {
	r.client.Stop()
}

// Notify chatId 可以是数字或字符串形式的数字
func (r *Telegram) Notify(chatId, msg string) error {
	_chatId := cast.ToInt64(chatId)
	_, err := r.client.Send(tele.ChatID(_chatId), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
	return err
}
