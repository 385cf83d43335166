package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventRecommendationCompleted = "recommendation_completed"
	EventBookingCreated          = "booking_created"
	EventBookingModified         = "booking_modified"
	EventBookingCancelled        = "booking_cancelled"
	EventReviewRequested         = "review_requested"
)

// RecommendationEventPayload is published when a dialog reaches a terminal
// candidate list.
type RecommendationEventPayload struct {
	UserID       int64    `json:"user_id"`
	Mode         string   `json:"mode"`
	Intent       string   `json:"intent,omitempty"`
	Outcome      string   `json:"outcome"`
	CandidateIDs []string `json:"candidate_ids"`
}

// BookingEventPayload is the booking snapshot sent to event consumers.
type BookingEventPayload struct {
	BookingID          string `json:"booking_id"`
	UserID             int64  `json:"user_id"`
	RestaurantID       string `json:"restaurant_id"`
	RestaurantName     string `json:"restaurant_name"`
	Status             string `json:"status"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	PartySize          int    `json:"party_size"`
	EstimatedCost      int64  `json:"estimated_cost"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs the handlers synchronously and returns the first handler error.
// Every handler runs even if an earlier one failed.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var firstErr error
	for _, handler := range handlers {
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishJSON serializes the payload and publishes an event. A nil bus
// drops the event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
