package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellmeet/internal/dialog"
	"wellmeet/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `웰밋 컨시어지 🍽

/start - 새 맛집 추천 대화 시작
/new - 처음부터 다시 추천받기
/bookings - 내 예약 보기
/notifications - 알림 보기
/help - 도움말`

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	logging.FromContext(ctx, b.logger).Debug().
		Str("username", msg.From.UserName).
		Int("text_len", len(text)).
		Msg("Handling message")

	if isCommand(text) {
		b.handleCommand(ctx, chatID, userID, text)
		return
	}

	if f := b.form(userID); f != nil && f.awaitingInput() {
		b.handleFormInput(ctx, chatID, userID, f, text)
		return
	}

	b.handleChatText(ctx, chatID, userID, text)
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, text string) {
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start", "/new":
		b.startChat(ctx, chatID, userID)
	case "/bookings":
		b.showBookings(ctx, chatID, 0, tabUpcoming, 0)
	case "/notifications":
		b.showNotifications(ctx, chatID, 0)
	case "/help":
		b.sendMessage(chatID, helpText)
	default:
		b.sendMessage(chatID, helpText)
	}
}

func (b *Bot) startChat(ctx context.Context, chatID, userID int64) {
	b.closeForm(userID)
	if n := b.unreadCount(ctx); n > 0 {
		b.sendMessage(chatID, fmt.Sprintf("🔔 읽지 않은 알림이 %d개 있어요. /notifications", n))
	}
	// приветствие отрисует renderTurn
	if _, err := b.dialog.Start(ctx, userID); err != nil {
		logging.FromContext(ctx, b.logger).Error().Err(err).Msg("Failed to start dialog")
		b.reportError(chatID, err)
	}
}

// handleChatText feeds a message to the dialog. A message that matches a
// quick-reply chip is treated as selecting it.
func (b *Bot) handleChatText(ctx context.Context, chatID, userID int64, text string) {
	session, err := b.dialog.Session(ctx, userID)
	if errors.Is(err, dialog.ErrNoSession) {
		if session, err = b.dialog.Start(ctx, userID); err != nil {
			b.reportError(chatID, err)
			return
		}
	} else if err != nil {
		b.reportError(chatID, err)
		return
	}

	submit := b.dialog.Submit
	for _, option := range session.QuickReplies() {
		if option == text {
			submit = b.dialog.SelectOption
			break
		}
	}

	if err := b.tgService.SendTyping(chatID); err != nil {
		logging.FromContext(ctx, b.logger).Debug().Err(err).Msg("Typing indicator failed")
	}
	if _, err := submit(ctx, userID, text); err != nil {
		b.reportError(chatID, err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// sanitizeInput flattens free text typed into the form.
func sanitizeInput(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > 200 {
		text = string(r[:200])
	}
	return text
}
