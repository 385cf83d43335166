package bot

import (
	"context"
	"strconv"
	"strings"

	"wellmeet/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Отвечаем на callback сразу, чтобы убрать "часики"
	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		logging.FromContext(ctx, b.logger).Debug().Err(err).Msg("Failed to answer callback")
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}

	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	switch {
	case data == cbChatNew:
		b.startChat(ctx, chatID, userID)
	case strings.HasPrefix(data, cbReserve):
		b.reserveCandidate(ctx, chatID, userID, strings.TrimPrefix(data, cbReserve))
	case strings.HasPrefix(data, cbForm):
		b.handleFormCallback(ctx, chatID, userID, strings.TrimPrefix(data, cbForm))
	case strings.HasPrefix(data, cbBookings):
		b.handleBookingCallback(ctx, chatID, userID, messageID, strings.TrimPrefix(data, cbBookings))
	case strings.HasPrefix(data, cbNotifications):
		b.handleNotificationCallback(ctx, chatID, messageID, strings.TrimPrefix(data, cbNotifications))
	default:
		logging.FromContext(ctx, b.logger).Warn().Str("data", data).Msg("Unknown callback")
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
