// Package transport delivers Telegram updates to the agent engine.
package transport

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/finassist/finance-assistant/internal/agent"
	"github.com/finassist/finance-assistant/internal/store"
	"github.com/finassist/finance-assistant/pkg/logger"
)

const unauthorizedReply = "🚫 Unauthorized access. Please contact the administrator."

// Bot is the Telegram long-polling transport. Only the single configured
// user id ever reaches the engine; everyone else is rejected at this edge.
type Bot struct {
	api        *tgbotapi.BotAPI
	engine     *agent.Engine
	store      *store.Store
	authorized int64
	logger     *logger.Logger
}

// New creates the transport.
func New(token string, authorized int64, engine *agent.Engine, st *store.Store, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	return &Bot{
		api:        api,
		engine:     engine,
		store:      st,
		authorized: authorized,
		logger:     log,
	}, nil
}

// Run polls for updates until the context is canceled. Updates are handled
// one at a time, which guarantees at most one active turn per user.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot starting", zap.String("username", b.api.Self.UserName))

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if msg.From.ID != b.authorized {
		b.logger.Warn("unauthorized access", zap.Int64("user_id", msg.From.ID))
		b.reply(msg.Chat.ID, unauthorizedReply)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if msg.Text == "" {
		return
	}

	b.sendTyping(msg.Chat.ID)
	reply := b.engine.Respond(ctx, msg.From.ID, msg.Text)
	b.reply(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.store.Init(msg.From.ID)
		b.reply(msg.Chat.ID, fmt.Sprintf("Hello %s! I am My Financial Assistant. I can help you with bookkeeping or scheduling.", msg.From.FirstName))
	default:
		// Unknown commands are ignored, like any non-text update.
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send reply", zap.Error(err))
	}
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send typing action", zap.Error(err))
	}
}
