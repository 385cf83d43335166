package models

type Notification struct {
	ID           string `json:"id"`
	Type         string `json:"type"` // booking_confirmed, reminder, review_reply, concierge_message
	Title        string `json:"title"`
	Message      string `json:"message"`
	Detail       string `json:"detail,omitempty"`
	Time         string `json:"time"`
	IsRead       bool   `json:"isRead"`
	BookingID    string `json:"bookingId,omitempty"`
	RestaurantID string `json:"restaurantId,omitempty"`
}
