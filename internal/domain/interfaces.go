package domain

import (
	"context"
	"time"

	"wellmeet/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository persists conversation sessions keyed by user.
type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.ConversationSession, error)
	SaveSession(ctx context.Context, session *models.ConversationSession) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SessionStore is what the dialog and the bot depend on; the service layer
// implements it on top of a SessionRepository.
type SessionStore interface {
	SessionRepository
}

// TextRecommender is the remote free-text matching call (POST /recommend).
type TextRecommender interface {
	Recommend(ctx context.Context, query string) ([]models.Candidate, error)
}

// QuickReservationBridge is a one-shot handoff: Offer stores a payload, Take
// returns and removes it atomically.
type QuickReservationBridge interface {
	Offer(ctx context.Context, userID int64, payload models.QuickReservationPayload) error
	Take(ctx context.Context, userID int64) (*models.QuickReservationPayload, error)
}

// ReservationClient is the booking CRUD contract (/reservation).
type ReservationClient interface {
	CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.BookingRecord, error)
	GetReservation(ctx context.Context, id string) (*models.BookingRecord, error)
	ListReservations(ctx context.Context) ([]models.BookingRecord, error)
	UpdateReservation(ctx context.Context, id string, req models.ReservationRequest) (*models.BookingRecord, error)
	UpdateReservationStatus(ctx context.Context, id string, status string) (*models.BookingRecord, error)
}

// NotificationFeed is the read-only notification collaborator.
type NotificationFeed interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetMe() (tgbotapi.User, error)
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendRemoveKeyboard(chatID int64, text string) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendTyping(chatID int64) error
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
