package bot

import (
	"errors"
	"net/http"

	"wellmeet/internal/api"
	"wellmeet/internal/booking"
	"wellmeet/internal/database"
	"wellmeet/internal/dialog"
)

const (
	msgRateLimited   = "⚠️ 메시지를 너무 자주 보내고 있어요. 잠시 후 다시 시도해주세요."
	msgThinking      = "잠시만요! 답변을 준비하고 있어요 ⏳"
	msgNeedStart     = "/start 를 눌러 대화를 시작해주세요."
	msgFormExpired   = "예약 양식이 만료되었어요. 다시 시작해주세요."
	msgUnknownOption = "아래 선택지 중에서 골라주세요."
)

// errorMessage maps an error to the text shown to the user and the metric
// category it is counted under.
func errorMessage(err error) (category, text string) {
	switch {
	case errors.Is(err, dialog.ErrInputDisabled):
		return "input_disabled", msgThinking
	case errors.Is(err, dialog.ErrNoSession):
		return "no_session", msgNeedStart
	case errors.Is(err, dialog.ErrEmptyMessage):
		return "validation", "메시지를 입력해주세요."
	case errors.Is(err, dialog.ErrUnknownOption):
		return "validation", msgUnknownOption
	case errors.Is(err, dialog.ErrUnknownCandidate):
		return "validation", "지난 추천 목록의 식당이에요. 새로 추천을 받아주세요."

	case errors.Is(err, booking.ErrNotEligible):
		return "validation", "⚠️ 날짜, 시간, 필수 동의 항목을 모두 선택해주세요."
	case errors.Is(err, booking.ErrDraftSubmitted):
		return "validation", "이미 접수된 예약이에요."
	case errors.Is(err, booking.ErrPastDate):
		return "validation", "⚠️ 지난 날짜는 선택할 수 없어요."
	case errors.Is(err, booking.ErrInvalidDate):
		return "validation", "⚠️ 날짜는 2026-10-25 형식으로 입력해주세요."
	case errors.Is(err, booking.ErrUnknownSlot), errors.Is(err, booking.ErrUnknownQuickDate):
		return "validation", msgUnknownOption
	case errors.Is(err, booking.ErrActionNotAllowed), errors.Is(err, database.ErrInvalidTransition):
		return "validation", "⚠️ 현재 예약 상태에서는 할 수 없는 작업이에요."

	case errors.Is(err, database.ErrConcurrentModification), api.StatusCode(err) == http.StatusConflict:
		return "conflict", "⚠️ 예약이 다른 곳에서 변경되었어요. 목록을 새로 열어 다시 시도해주세요."
	case errors.Is(err, database.ErrNotFound), api.StatusCode(err) == http.StatusNotFound:
		return "not_found", "예약을 찾을 수 없어요."

	case api.IsTransportError(err):
		return "transport_error", "📡 예약 서비스에 연결할 수 없어요. 인터넷 연결을 확인한 뒤 다시 시도해주세요."
	case api.IsServiceError(err):
		return "service_error", "😥 예약 서비스에 일시적인 문제가 생겼어요. 잠시 후 다시 시도해주세요."
	}

	return "internal", "❌ 요청을 처리하지 못했어요. 잠시 후 다시 시도해주세요."
}

func (b *Bot) reportError(chatID int64, err error) {
	category, text := errorMessage(err)
	b.metrics.incError(category)
	b.sendMessage(chatID, text)
}
