package booking

import (
	"fmt"

	"wellmeet/internal/models"
)

type Action string

const (
	ActionModify Action = "modify"
	ActionCancel Action = "cancel"
	ActionRebook Action = "rebook"
	ActionReview Action = "review"
)

// allowed is the status/action matrix. Cancelled bookings allow nothing.
var allowed = map[string][]Action{
	models.StatusPending:   {ActionModify, ActionCancel},
	models.StatusConfirmed: {ActionModify, ActionCancel},
	models.StatusCompleted: {ActionRebook, ActionReview},
	models.StatusCancelled: nil,
}

var statusLabels = map[string]string{
	models.StatusPending:   "예약 대기",
	models.StatusConfirmed: "예약 확정",
	models.StatusCompleted: "방문 완료",
	models.StatusCancelled: "예약 취소",
}

// AllowedActions returns a copy of the actions offered for a status.
func AllowedActions(status string) []Action {
	return append([]Action(nil), allowed[status]...)
}

func Allows(status string, action Action) bool {
	for _, a := range allowed[status] {
		if a == action {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the booking record can no longer change status.
func IsTerminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

// NextStatus is the status of the same record after the action. Rebook and
// review never touch the record; modify keeps its status.
func NextStatus(status string, action Action) (string, error) {
	if !Allows(status, action) {
		return "", fmt.Errorf("%w: %s on %s", ErrActionNotAllowed, action, status)
	}
	if action == ActionCancel {
		return models.StatusCancelled, nil
	}
	return status, nil
}

func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

func CancelPrompt(restaurantName string) string {
	return fmt.Sprintf("%s 예약을 취소하시겠습니까?", restaurantName)
}

// SplitUpcoming separates upcoming (pending, confirmed) from past bookings,
// keeping the input order inside each group.
func SplitUpcoming(records []models.BookingRecord) (upcoming, past []models.BookingRecord) {
	for _, r := range records {
		if r.IsUpcoming() {
			upcoming = append(upcoming, r)
		} else {
			past = append(past, r)
		}
	}
	return upcoming, past
}

// CanTransition reports whether a stored record may move between statuses.
// Guests cancel through the action matrix; the restaurant confirms pending
// bookings and completes confirmed ones.
func CanTransition(from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	switch to {
	case models.StatusCancelled:
		return Allows(from, ActionCancel)
	case models.StatusConfirmed:
		return from == models.StatusPending
	case models.StatusCompleted:
		return from == models.StatusConfirmed
	}
	return false
}
