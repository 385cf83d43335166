package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellmeet/internal/booking"
	"wellmeet/internal/logging"
	"wellmeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbBookings = "bk:"

	tabUpcoming = "up"
	tabPast     = "past"
)

var actionLabels = map[booking.Action]string{
	booking.ActionModify: "✏️ 예약 변경",
	booking.ActionCancel: "❌ 예약 취소",
	booking.ActionRebook: "🔁 다시 예약",
	booking.ActionReview: "⭐ 리뷰 쓰기",
}

var actionCallbacks = map[booking.Action]string{
	booking.ActionModify: "mod",
	booking.ActionCancel: "cxl",
	booking.ActionRebook: "re",
	booking.ActionReview: "rev",
}

func statusEmoji(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusCompleted:
		return "🏁"
	case models.StatusCancelled:
		return "❌"
	default:
		return "⏳"
	}
}

// showBookings renders one tab of the booking list.
// unreadCount is best effort; a failing feed shows no badge.
func (b *Bot) unreadCount(ctx context.Context) int {
	n, err := b.notifications.UnreadCount(ctx)
	if err != nil {
		logging.FromContext(ctx, b.logger).Warn().Err(err).Msg("Failed to count unread notifications")
		return 0
	}
	return n
}

func (b *Bot) showBookings(ctx context.Context, chatID int64, messageID int, tab string, page int) {
	upcoming, past, err := b.bookings.List(ctx)
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	records, title := upcoming, fmt.Sprintf("📋 다가오는 예약 (%d)", len(upcoming))
	if tab == tabPast {
		records, title = past, fmt.Sprintf("📋 지난 예약 (%d)", len(past))
	}
	if n := b.unreadCount(ctx); n > 0 {
		title += fmt.Sprintf(" · 🔔 %d", n)
	}

	header := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(mark(tab == tabUpcoming, fmt.Sprintf("다가오는 %d", len(upcoming))), cbBookings+"list:"+tabUpcoming+":0"),
		tgbotapi.NewInlineKeyboardButtonData(mark(tab == tabPast, fmt.Sprintf("지난 %d", len(past))), cbBookings+"list:"+tabPast+":0"),
	)}

	params := PaginationParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      title,
		PagePrefix: cbBookings + "list:" + tab + ":",
		Header:     header,
	}

	b.renderPaginatedList(params, len(records), defaultPageSize, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		if len(records) == 0 {
			return "예약 내역이 없어요.", nil
		}
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton
		for _, rec := range records[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("%s %s · %s\n", statusEmoji(rec.Status), rec.RestaurantName, booking.StatusLabel(rec.Status)))
			content.WriteString(fmt.Sprintf("   📅 %s %s · 👥 %d명\n\n", rec.Date, rec.Time, rec.PartySize))
			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s (%s)", statusEmoji(rec.Status), rec.RestaurantName, rec.Date), cbBookings+"view:"+rec.ID),
			))
		}
		return content.String(), keyboard
	})
}

func formatBooking(rec *models.BookingRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", statusEmoji(rec.Status), rec.RestaurantName))
	sb.WriteString(fmt.Sprintf("상태: %s\n", booking.StatusLabel(rec.Status)))
	if rec.ConfirmationNumber != "" {
		sb.WriteString(fmt.Sprintf("예약번호: %s\n", rec.ConfirmationNumber))
	}
	sb.WriteString(fmt.Sprintf("📅 %s %s\n", rec.Date, rec.Time))
	if rec.Adults > 0 {
		sb.WriteString(fmt.Sprintf("👥 %d명 (성인 %d, 어린이 %d)\n", rec.PartySize, rec.Adults, rec.Children))
	} else {
		sb.WriteString(fmt.Sprintf("👥 %d명\n", rec.PartySize))
	}
	sb.WriteString(fmt.Sprintf("💰 %s원", booking.FormatWon(rec.EstimatedCost)))
	if rec.SpecialRequest != "" {
		sb.WriteString(fmt.Sprintf("\n💬 %s", rec.SpecialRequest))
	}
	if rec.Location != "" {
		sb.WriteString(fmt.Sprintf("\n📍 %s", rec.Location))
	}
	if rec.Phone != "" {
		sb.WriteString(fmt.Sprintf("\n📞 %s", rec.Phone))
	}
	return sb.String()
}

// bookingKeyboard offers exactly the actions the status allows.
func bookingKeyboard(rec *models.BookingRecord) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, action := range booking.AllowedActions(rec.Status) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(actionLabels[action], cbBookings+actionCallbacks[action]+":"+rec.ID),
		))
	}
	tab := tabPast
	if rec.IsUpcoming() {
		tab = tabUpcoming
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ 목록으로", cbBookings+"list:"+tab+":0"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) showBooking(ctx context.Context, chatID int64, messageID int, id string) {
	rec, err := b.bookings.Get(ctx, id)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	kb := bookingKeyboard(rec)
	if _, err := b.tgService.EditMessage(chatID, messageID, formatBooking(rec), &kb); err != nil {
		b.logger.Error().Err(err).Str("booking_id", id).Msg("Failed to show booking")
	}
}

// handleBookingCallback handles "bk:" buttons; data has the prefix stripped.
func (b *Bot) handleBookingCallback(ctx context.Context, chatID, userID int64, messageID int, data string) {
	action, arg, _ := strings.Cut(data, ":")

	switch action {
	case "list":
		tab, pageStr, _ := strings.Cut(arg, ":")
		b.showBookings(ctx, chatID, messageID, tab, atoiOrZero(pageStr))

	case "view":
		b.showBooking(ctx, chatID, messageID, arg)

	case "mod":
		draft, err := b.bookings.Modify(ctx, arg)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		b.openForm(ctx, chatID, userID, draft)

	case "re":
		draft, err := b.bookings.Rebook(ctx, userID, arg)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		b.openForm(ctx, chatID, userID, draft)

	case "rev":
		rec, err := b.bookings.Review(ctx, userID, arg)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("⭐ %s 방문은 어떠셨나요? 리뷰 작성 안내를 알림으로 보내드릴게요.", rec.RestaurantName))

	case "cxl":
		prompt, err := b.bookings.CancelPrompt(ctx, arg)
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("예, 취소할게요", cbBookings+"cxlyes:"+arg),
			tgbotapi.NewInlineKeyboardButtonData("아니요", cbBookings+"cxlno:"+arg),
		))
		if _, err := b.tgService.EditMessage(chatID, messageID, prompt, &kb); err != nil {
			b.logger.Error().Err(err).Str("booking_id", arg).Msg("Failed to show cancel prompt")
		}

	case "cxlyes", "cxlno":
		rec, err := b.bookings.Cancel(ctx, userID, arg, action == "cxlyes")
		if errors.Is(err, booking.ErrCancelNotConfirmed) {
			b.showBooking(ctx, chatID, messageID, arg)
			return
		}
		if err != nil {
			b.reportError(chatID, err)
			return
		}
		kb := bookingKeyboard(rec)
		if _, err := b.tgService.EditMessage(chatID, messageID, "예약이 취소되었어요.\n\n"+formatBooking(rec), &kb); err != nil {
			b.logger.Error().Err(err).Str("booking_id", arg).Msg("Failed to show cancelled booking")
		}
	}
}
