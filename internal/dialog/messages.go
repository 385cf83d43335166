package dialog

import "wellmeet/internal/recommend"

const (
	msgGreetingFixed    = "안녕하세요! 어떤 상황에서 드실 건가요? 자세히 설명해주시면 완벽한 맛집을 추천해드릴게요 😊"
	msgGreetingFreeText = "안녕하세요! 원하시는 분위기나 상황을 자유롭게 말씀해주세요. 딱 맞는 맛집을 찾아드릴게요 😊"
	msgAskPartySize     = "몇 명이서 가시나요?"
	msgAskBudget        = "예산은 어느 정도 생각하고 계세요?"
	msgAskAgain         = "다른 상황이나 조건으로 추천받고 싶으시면 말씀해주세요! 😊"

	// у каждого исхода свой текст
	msgNoMatch        = "말씀하신 조건에 맞는 맛집을 아직 찾지 못했어요. 분위기나 지역을 바꿔서 다시 말씀해주세요 🙏"
	msgServiceError   = "추천 서비스에 일시적인 문제가 생겼어요. 잠시 후 다시 시도해주세요 😥"
	msgTransportError = "네트워크에 연결할 수 없어요. 인터넷 연결을 확인한 뒤 다시 시도해주세요 📡"
)

// failureText maps a non-result outcome to what the user reads.
func failureText(o recommend.Outcome) string {
	switch o {
	case recommend.OutcomeEmpty:
		return msgNoMatch
	case recommend.OutcomeTransportError:
		return msgTransportError
	default:
		return msgServiceError
	}
}
