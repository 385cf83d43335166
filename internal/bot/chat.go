package bot

import (
	"context"
	"fmt"
	"strings"

	"wellmeet/internal/logging"
	"wellmeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbReserve  = "rsv:"
	cbChatNew  = "chat:new"
	chipsInRow = 2
)

// renderTurn is the dialog listener: it sends each assistant turn to the
// user's private chat.
func (b *Bot) renderTurn(ctx context.Context, session *models.ConversationSession, turn models.Turn) {
	chatID := session.UserID
	var err error

	switch turn.Kind {
	case models.TurnChoicePrompt:
		_, err = b.tgService.SendWithKeyboard(chatID, turn.Content, chipsKeyboard(turn.Options))
	case models.TurnCandidateList:
		_, err = b.tgService.SendWithInlineKeyboard(chatID, formatCandidates(turn), candidateKeyboard(turn.Candidates))
	default:
		_, err = b.tgService.SendRemoveKeyboard(chatID, turn.Content)
	}

	if err != nil {
		logging.FromContext(ctx, b.logger).Error().Err(err).Int64("chat_id", chatID).Str("turn", turn.ID).Msg("Failed to render turn")
	}
}

func chipsKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += chipsInRow {
		end := min(i+chipsInRow, len(options))
		var row []tgbotapi.KeyboardButton
		for _, o := range options[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(o))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func formatCandidates(turn models.Turn) string {
	var sb strings.Builder
	sb.WriteString(turn.Content)
	for i, c := range turn.Candidates {
		sb.WriteString(fmt.Sprintf("\n\n%d. %s · %s\n", i+1, c.Name, c.Category))
		sb.WriteString(fmt.Sprintf("   ⭐ %.1f (%d) · %s\n", c.Rating, c.ReviewCount, c.PriceRange))
		sb.WriteString(fmt.Sprintf("   📍 %s", c.Location))
		if c.Rationale != "" {
			sb.WriteString(fmt.Sprintf("\n   💬 %s", c.Rationale))
		}
	}
	return sb.String()
}

func candidateKeyboard(candidates []models.Candidate) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range candidates {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽 "+c.Name+" 예약하기", cbReserve+c.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 새로 추천받기", cbChatNew),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// reserveCandidate hands the candidate to the booking form through the
// quick reservation bridge and opens the form right away.
func (b *Bot) reserveCandidate(ctx context.Context, chatID, userID int64, candidateID string) {
	candidate, err := b.dialog.ReserveCandidate(ctx, userID, candidateID)
	if err != nil {
		b.reportError(chatID, err)
		return
	}
	draft := b.bookings.NewDraft(ctx, userID, candidate.Ref())
	b.openForm(ctx, chatID, userID, draft)
}
