package models

import "time"

// QuickReservationPayload is handed from a chat or listing flow to the next
// reservation draft. It is consumed at most once.
type QuickReservationPayload struct {
	RestaurantID    string `json:"restaurant_id,omitempty"`
	Date            string `json:"date,omitempty"` // YYYY-MM-DD
	Time            string `json:"time,omitempty"` // HH:MM
	PartySizeBucket string `json:"party_size,omitempty"`
}

func (p QuickReservationPayload) IsEmpty() bool {
	return p.Date == "" && p.Time == "" && p.PartySizeBucket == ""
}

type NotifyPrefs struct {
	SMS      bool `json:"sms"`
	Email    bool `json:"email"`
	Reminder bool `json:"reminder"`
}

// ReservationRequest is the create/modify body sent to the reservation service.
type ReservationRequest struct {
	RestaurantID   string       `json:"restaurantId"`
	RestaurantName string       `json:"restaurantName,omitempty"`
	Date           string       `json:"date"`
	Time           string       `json:"time"`
	PartySize      int          `json:"partySize"`
	Adults         int          `json:"adults"`
	Children       int          `json:"children"`
	EstimatedCost  int64        `json:"estimatedCost"`
	SpecialRequest string       `json:"specialRequest,omitempty"`
	Notify         *NotifyPrefs `json:"notify,omitempty"`
}

// BookingRecord is a created reservation. Only Status changes after creation,
// apart from in-place modification through the reservation service.
type BookingRecord struct {
	ID                 string    `json:"id"`
	RestaurantID       string    `json:"restaurantId"`
	RestaurantName     string    `json:"restaurantName"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	PartySize          int       `json:"partySize"`
	Adults             int       `json:"adults,omitempty"`
	Children           int       `json:"children,omitempty"`
	EstimatedCost      int64     `json:"estimatedCost"`
	Status             string    `json:"status"`
	ConfirmationNumber string    `json:"confirmationNumber,omitempty"`
	SpecialRequest     string    `json:"specialRequest,omitempty"`
	Location           string    `json:"location,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	Version            int64     `json:"version,omitempty"`
}

// IsUpcoming reports whether the booking belongs in the upcoming tab.
func (b BookingRecord) IsUpcoming() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
