package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbNotifications  = "ntf:"
	notificationPage = 10
)

func (b *Bot) showNotifications(ctx context.Context, chatID int64, messageID int) {
	list, unread, err := b.notifications.Inbox(ctx)
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 알림 (읽지 않음 %d)\n", unread))
	if len(list) == 0 {
		sb.WriteString("\n새 알림이 없어요.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, n := range list {
		if i == notificationPage {
			break
		}
		dot := "  "
		if !n.IsRead {
			dot = "● "
		}
		sb.WriteString(fmt.Sprintf("\n%s%s\n   %s\n   %s\n", dot, n.Title, n.Message, n.Time))
		if !n.IsRead {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("읽음 표시: "+n.Title, cbNotifications+"read:"+n.ID),
			))
		}
	}
	if unread > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("모두 읽음", cbNotifications+"all"),
		))
	}

	if len(rows) == 0 {
		if messageID != 0 {
			_, err = b.tgService.EditMessage(chatID, messageID, sb.String(), nil)
		} else {
			_, err = b.tgService.SendMessage(chatID, sb.String())
		}
	} else {
		kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
		if messageID != 0 {
			_, err = b.tgService.EditMessage(chatID, messageID, sb.String(), &kb)
		} else {
			_, err = b.tgService.SendWithInlineKeyboard(chatID, sb.String(), kb)
		}
	}
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to show notifications")
	}
}

func (b *Bot) handleNotificationCallback(ctx context.Context, chatID int64, messageID int, data string) {
	var err error
	switch {
	case data == "all":
		err = b.notifications.MarkAllRead(ctx)
	case strings.HasPrefix(data, "read:"):
		err = b.notifications.MarkRead(ctx, strings.TrimPrefix(data, "read:"))
	}
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	b.showNotifications(ctx, chatID, messageID)
}
