package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type TelegramBot struct {
	apiKey       string
	apiEndpoint  string
	proxyDSN     string
	adminChatIDs []int64
	dbService    *DatabaseService
	scheduler    *CleanupScheduler
	logger       logrus.FieldLogger
	bot          *tgbotapi.BotAPI
}

func NewTelegramBot(config *Config, dbService *DatabaseService, scheduler *CleanupScheduler, logger logrus.FieldLogger) *TelegramBot {
	return &TelegramBot{
		apiKey:       config.TelegramBotToken,
		apiEndpoint:  tgbotapi.APIEndpoint,
		proxyDSN:     config.ProxyDSN,
		adminChatIDs: config.TelegramAdminChatIDs,
		dbService:    dbService,
		scheduler:    scheduler,
		logger:       logger,
	}
}

// contextTransport binds every request to ctx, since tgbotapi builds requests without one.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (c *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.base.RoundTrip(req.WithContext(c.ctx))
}

func (t *TelegramBot) connect(ctx context.Context) (*tgbotapi.BotAPI, error) {
	transport := &http.Transport{}
	if t.proxyDSN != "" {
		proxyURL, err := url.Parse(t.proxyDSN)
		if err != nil {
			return nil, fmt.Errorf("telegram proxy dsn error: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: &contextTransport{ctx: ctx, base: transport},
		Timeout:   75 * time.Second,
	}

	return tgbotapi.NewBotAPIWithClient(t.apiKey, t.apiEndpoint, client)
}

// Run long-polls updates until ctx is cancelled.
func (t *TelegramBot) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	bot, err := t.connect(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	t.bot = bot
	t.logger.WithField("username", bot.Self.UserName).Info("Authorized on Telegram")

	t.scheduler.Start()
	defer t.scheduler.Stop()

	if ctx.Err() != nil {
		return nil
	}
	t.notifyAdmins(fmt.Sprintf("🤖 @%s started at %s", bot.Self.UserName, time.Now().Format("2006-01-02 15:04:05")))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	return t.listen(ctx, updates)
}

// listen dispatches updates until ctx is cancelled or the channel closes.
func (t *TelegramBot) listen(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			t.handleUpdate(update)
		}
	}
}

func (t *TelegramBot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	username := ""
	if update.Message.From != nil {
		username = update.Message.From.UserName
	}

	reply := HandleCommand(t.dbService, update.Message.Chat.ID, username, update.Message.Command())
	t.send(update.Message.Chat.ID, reply)
}

func (t *TelegramBot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send telegram message")
	}
}

func (t *TelegramBot) notifyAdmins(text string) {
	for _, chatID := range t.adminChatIDs {
		t.send(chatID, text)
	}
}
