package models

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Dialog states. The fixed-sequence variant walks INITIAL -> ASKING_PARTY_SIZE ->
// ASKING_BUDGET -> COMPLETE; the free-text variant stays in FREE_TEXT_QUERY until a match.
const (
	StateInitial         = "INITIAL"
	StateAskingPartySize = "ASKING_PARTY_SIZE"
	StateAskingBudget    = "ASKING_BUDGET"
	StateComplete        = "COMPLETE"
	StateFreeTextQuery   = "FREE_TEXT_QUERY"
	StateNoMatch         = "NO_MATCH"
	StateServiceError    = "SERVICE_ERROR"
)

const (
	DialogModeFixed    = "fixed"
	DialogModeFreeText = "free_text"
)

const (
	// DefaultThinkingDelayMs пауза перед ответом ассистента
	DefaultThinkingDelayMs = 1500

	// DefaultAdultPrice стоимость курса для взрослого
	DefaultAdultPrice = 150000

	// DefaultChildPrice стоимость курса для ребенка
	DefaultChildPrice = 75000

	// QuickReservationTTLMinutes время жизни данных быстрого бронирования
	QuickReservationTTLMinutes = 30

	// SessionTTLHours время жизни диалога в хранилище
	SessionTTLHours = 24

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// RecommendCacheTTL время жизни кэша рекомендаций
	RecommendCacheTTL = 10 * 60 // 10 минут в секундах
)

var (
	DefaultLunchSlots  = []string{"11:30", "12:00", "12:30", "13:00", "13:30"}
	DefaultDinnerSlots = []string{"17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00"}
)
