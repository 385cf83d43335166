package bot

import (
	"context"
	"sync"
	"time"

	"wellmeet/internal/config"
	"wellmeet/internal/dialog"
	"wellmeet/internal/domain"
	"wellmeet/internal/logging"
	"wellmeet/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService     domain.TelegramService
	config        *config.Config
	sessions      domain.SessionStore
	dialog        *dialog.Controller
	bookings      *service.BookingService
	notifications *service.NotificationService
	metrics       *Metrics
	logger        *zerolog.Logger

	forms sync.Map // int64 -> *formState
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	sessions domain.SessionStore,
	controller *dialog.Controller,
	bookings *service.BookingService,
	notifications *service.NotificationService,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	b := &Bot{
		tgService:     tgService,
		config:        config,
		sessions:      sessions,
		dialog:        controller,
		bookings:      bookings,
		notifications: notifications,
		metrics:       metrics,
		logger:        logger,
	}
	controller.OnReply(b.renderTurn)
	return b
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind := updateKind(update)
	defer func() {
		b.metrics.observeUpdate(kind, time.Since(start))
	}()

	var userID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID = update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		userID = update.CallbackQuery.From.ID
	}
	if userID == 0 {
		return
	}

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	updateCtx, l := logging.ForUpdate(updateCtx, b.logger, userID, kind)

	b.withRecovery(l, func() {
		if !b.allow(updateCtx, userID) {
			l.Warn().Msg("Rate limit exceeded")
			if update.Message != nil {
				b.sendMessage(update.Message.Chat.ID, msgRateLimited)
			} else {
				_ = b.tgService.AnswerCallback(update.CallbackQuery.ID, msgRateLimited)
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update.CallbackQuery)
			return
		}
		b.handleMessage(updateCtx, update.Message)
	})
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && isCommand(update.Message.Text):
		return "command"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}
