package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultPageSize = 5

type PaginationParams struct {
	ChatID       int64
	MessageID    int // 0 if new message
	Page         int
	Title        string
	PagePrefix   string
	Header       [][]tgbotapi.InlineKeyboardButton
	BackCallback string
	BackLabel    string
}

// renderPaginatedList - универсальная функция для отрисовки пагинированного списка
func (b *Bot) renderPaginatedList(params PaginationParams, totalCount int, itemsPerPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	if itemsPerPage <= 0 {
		itemsPerPage = defaultPageSize
	}

	totalPages := (totalCount + itemsPerPage - 1) / itemsPerPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
	}
	if params.Page < 0 {
		params.Page = 0
	}

	startIdx := params.Page * itemsPerPage
	endIdx := min(startIdx+itemsPerPage, totalCount)

	content, keyboard := renderer(startIdx, endIdx)
	keyboard = append(append([][]tgbotapi.InlineKeyboardButton(nil), params.Header...), keyboard...)

	var message strings.Builder
	message.WriteString(params.Title + "\n\n")
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("%d / %d 페이지\n\n", params.Page+1, totalPages))
	}
	message.WriteString(content)

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ 이전", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("다음 ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	if params.BackCallback != "" {
		label := params.BackLabel
		if label == "" {
			label = "⬅️ 뒤로"
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, params.BackCallback),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	var err error
	if params.MessageID != 0 {
		_, err = b.tgService.EditMessage(params.ChatID, params.MessageID, message.String(), &markup)
	} else {
		_, err = b.tgService.SendWithInlineKeyboard(params.ChatID, message.String(), markup)
	}
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to render list")
	}
}
