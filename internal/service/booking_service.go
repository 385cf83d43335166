package service

import (
	"context"
	"fmt"

	"wellmeet/internal/booking"
	"wellmeet/internal/domain"
	"wellmeet/internal/events"
	"wellmeet/internal/metrics"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

// BookingService drives drafts and booking records against the reservation
// service. Records only change from what the service returns.
type BookingService struct {
	client   domain.ReservationClient
	builder  *booking.Builder
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(client domain.ReservationClient, builder *booking.Builder, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		client:   client,
		builder:  builder,
		eventBus: eventBus,
		logger:   logger,
	}
}

// NewDraft opens a reservation form and applies a pending quick reservation.
func (s *BookingService) NewDraft(ctx context.Context, userID int64, restaurant models.RestaurantRef) *booking.Draft {
	return s.builder.New(ctx, userID, restaurant)
}

// Submit creates the booking, or updates it in place for a modify draft.
// On failure the draft stays open so the user can retry.
func (s *BookingService) Submit(ctx context.Context, userID int64, d *booking.Draft) (*models.BookingRecord, error) {
	action := "create"
	if d.EditingID() != "" {
		action = string(booking.ActionModify)
	}

	req, err := d.Request()
	if err != nil {
		metrics.IncBooking(action, "rejected")
		return nil, err
	}

	var rec *models.BookingRecord
	if d.EditingID() != "" {
		rec, err = s.client.UpdateReservation(ctx, d.EditingID(), req)
	} else {
		rec, err = s.client.CreateReservation(ctx, req)
	}
	if err != nil {
		metrics.IncBooking(action, "error")
		s.logger.Error().Err(err).Int64("user_id", userID).Str("action", action).Str("restaurant", req.RestaurantID).Msg("Reservation submit failed")
		return nil, fmt.Errorf("%s reservation: %w", action, err)
	}

	d.MarkSubmitted()
	metrics.IncBooking(action, "ok")

	eventType := events.EventBookingCreated
	if action != "create" {
		eventType = events.EventBookingModified
	}
	s.publishEvent(eventType, userID, *rec)

	s.logger.Info().
		Int64("user_id", userID).
		Str("booking_id", rec.ID).
		Str("action", action).
		Str("confirmation", rec.ConfirmationNumber).
		Msg("Reservation submitted")
	return rec, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.client.GetReservation(ctx, id)
}

// List returns the bookings split into the upcoming and past tabs.
func (s *BookingService) List(ctx context.Context) (upcoming, past []models.BookingRecord, err error) {
	records, err := s.client.ListReservations(ctx)
	if err != nil {
		return nil, nil, err
	}
	upcoming, past = booking.SplitUpcoming(records)
	return upcoming, past, nil
}

// Modify opens a draft pre-populated from the booking.
func (s *BookingService) Modify(ctx context.Context, id string) (*booking.Draft, error) {
	rec, err := s.allowed(ctx, id, booking.ActionModify)
	if err != nil {
		return nil, err
	}
	return s.builder.ForModify(*rec), nil
}

// CancelPrompt returns the confirmation question shown before Cancel.
func (s *BookingService) CancelPrompt(ctx context.Context, id string) (string, error) {
	rec, err := s.allowed(ctx, id, booking.ActionCancel)
	if err != nil {
		return "", err
	}
	return booking.CancelPrompt(rec.RestaurantName), nil
}

// Cancel moves the booking to cancelled once the user confirmed. A declined
// confirmation makes no call at all.
func (s *BookingService) Cancel(ctx context.Context, userID int64, id string, confirmed bool) (*models.BookingRecord, error) {
	if !confirmed {
		metrics.IncBooking(string(booking.ActionCancel), "declined")
		return nil, booking.ErrCancelNotConfirmed
	}

	rec, err := s.allowed(ctx, id, booking.ActionCancel)
	if err != nil {
		return nil, err
	}
	next, err := booking.NextStatus(rec.Status, booking.ActionCancel)
	if err != nil {
		return nil, err
	}

	updated, err := s.client.UpdateReservationStatus(ctx, id, next)
	if err != nil {
		metrics.IncBooking(string(booking.ActionCancel), "error")
		s.logger.Error().Err(err).Int64("user_id", userID).Str("booking_id", id).Msg("Cancel failed")
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	metrics.IncBooking(string(booking.ActionCancel), "ok")
	s.publishEvent(events.EventBookingCancelled, userID, *updated)
	return updated, nil
}

// Rebook opens a new draft for the restaurant of a completed booking. The
// original record is not touched.
func (s *BookingService) Rebook(ctx context.Context, userID int64, id string) (*booking.Draft, error) {
	rec, err := s.allowed(ctx, id, booking.ActionRebook)
	if err != nil {
		return nil, err
	}
	metrics.IncBooking(string(booking.ActionRebook), "ok")
	return s.builder.ForRebook(ctx, userID, *rec), nil
}

// Review hands a completed booking to the review flow.
func (s *BookingService) Review(ctx context.Context, userID int64, id string) (*models.BookingRecord, error) {
	rec, err := s.allowed(ctx, id, booking.ActionReview)
	if err != nil {
		return nil, err
	}
	metrics.IncBooking(string(booking.ActionReview), "ok")
	s.publishEvent(events.EventReviewRequested, userID, *rec)
	return rec, nil
}

func (s *BookingService) allowed(ctx context.Context, id string, action booking.Action) (*models.BookingRecord, error) {
	rec, err := s.client.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Allows(rec.Status, action) {
		metrics.IncBooking(string(action), "not_allowed")
		return nil, fmt.Errorf("%w: %s on %s", booking.ErrActionNotAllowed, action, rec.Status)
	}
	return rec, nil
}

func (s *BookingService) publishEvent(eventType string, userID int64, rec models.BookingRecord) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:          rec.ID,
		UserID:             userID,
		RestaurantID:       rec.RestaurantID,
		RestaurantName:     rec.RestaurantName,
		Status:             rec.Status,
		Date:               rec.Date,
		Time:               rec.Time,
		PartySize:          rec.PartySize,
		EstimatedCost:      rec.EstimatedCost,
		ConfirmationNumber: rec.ConfirmationNumber,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", rec.ID).Msg("Failed to publish event")
	}
}
