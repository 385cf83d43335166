package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellmeet/internal/domain"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrNotEligible        = errors.New("draft is not ready to submit")
	ErrDraftSubmitted     = errors.New("draft was already submitted")
	ErrPastDate           = errors.New("date is in the past")
	ErrUnknownSlot        = errors.New("time slot is not offered")
	ErrUnknownQuickDate   = errors.New("unknown quick date")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrActionNotAllowed   = errors.New("action is not allowed for this booking status")
	ErrCancelNotConfirmed = errors.New("cancel was not confirmed")
)

// Draft is the open reservation form. It becomes read-only once submitted.
type Draft struct {
	restaurant     models.RestaurantRef
	date           string
	slot           string
	adults         int
	children       int
	specialRequest string
	notify         models.NotifyPrefs
	policyConsent  bool
	privacyConsent bool

	// editingID is set when the draft modifies an existing booking.
	editingID string
	prefilled bool
	submitted bool

	pricing Pricing
	grid    TimeGrid
	now     func() time.Time
}

// Builder creates drafts. It owns the quick-reservation handoff so that a
// payload is applied to at most one draft.
type Builder struct {
	bridge  domain.QuickReservationBridge
	pricing Pricing
	grid    TimeGrid
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewBuilder(bridge domain.QuickReservationBridge, pricing Pricing, grid TimeGrid, logger *zerolog.Logger) *Builder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Builder{
		bridge:  bridge,
		pricing: pricing,
		grid:    grid,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the clock used for relative dates.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) blank(restaurant models.RestaurantRef) *Draft {
	return &Draft{
		restaurant: restaurant,
		adults:     1,
		notify:     models.NotifyPrefs{SMS: true, Email: true, Reminder: true},
		pricing:    b.pricing,
		grid:       b.grid,
		now:        b.now,
	}
}

// New opens a draft for the restaurant and consumes the pending quick
// reservation, if any. The payload is deleted by the read itself.
func (b *Builder) New(ctx context.Context, userID int64, restaurant models.RestaurantRef) *Draft {
	d := b.blank(restaurant)
	if b.bridge == nil {
		return d
	}

	payload, err := b.bridge.Take(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("Quick reservation take failed")
		return d
	}
	if payload == nil || payload.IsEmpty() {
		return d
	}
	if payload.RestaurantID != "" && payload.RestaurantID != restaurant.ID {
		b.logger.Debug().
			Int64("user_id", userID).
			Str("payload_restaurant", payload.RestaurantID).
			Str("restaurant", restaurant.ID).
			Msg("Quick reservation for another restaurant dropped")
		return d
	}

	d.applyPrefill(*payload)
	b.logger.Debug().Int64("user_id", userID).Str("restaurant", restaurant.ID).Msg("Quick reservation applied")
	return d
}

func (d *Draft) applyPrefill(p models.QuickReservationPayload) {
	if p.Date != "" {
		if _, err := time.Parse(dateLayout, p.Date); err == nil {
			d.date = p.Date
		}
	}
	if p.Time != "" {
		if _, ok := d.grid.MealOf(p.Time); ok {
			d.slot = p.Time
		}
	}
	if n, ok := PartySizeFromBucket(p.PartySizeBucket); ok {
		d.adults = n
	}
	d.prefilled = true
}

// ForModify opens a draft pre-populated from an existing booking. Submitting
// it updates that booking in place.
func (b *Builder) ForModify(rec models.BookingRecord) *Draft {
	d := b.blank(models.RestaurantRef{ID: rec.RestaurantID, Name: rec.RestaurantName, Location: rec.Location, Phone: rec.Phone})
	d.date = rec.Date
	d.slot = rec.Time
	d.adults, d.children = rec.Adults, rec.Children
	if d.adults < 1 {
		d.adults = max(1, rec.PartySize-d.children)
	}
	d.specialRequest = rec.SpecialRequest
	d.editingID = rec.ID
	return d
}

// ForRebook opens an independent new draft for the restaurant of a past
// booking, keeping its party composition unless a quick reservation applies.
func (b *Builder) ForRebook(ctx context.Context, userID int64, rec models.BookingRecord) *Draft {
	d := b.New(ctx, userID, models.RestaurantRef{ID: rec.RestaurantID, Name: rec.RestaurantName, Location: rec.Location, Phone: rec.Phone})
	if !d.prefilled {
		if rec.Adults >= 1 {
			d.adults = rec.Adults
		}
		d.children = rec.Children
	}
	return d
}

func (d *Draft) Restaurant() models.RestaurantRef {
	return d.restaurant
}

func (d *Draft) Date() string {
	return d.date
}

func (d *Draft) Time() string {
	return d.slot
}

func (d *Draft) Adults() int {
	return d.adults
}

func (d *Draft) Children() int {
	return d.children
}

func (d *Draft) SpecialRequest() string {
	return d.specialRequest
}

func (d *Draft) Notify() models.NotifyPrefs {
	return d.notify
}

func (d *Draft) PolicyConsent() bool {
	return d.policyConsent
}

func (d *Draft) PrivacyConsent() bool {
	return d.privacyConsent
}

func (d *Draft) EditingID() string {
	return d.editingID
}

func (d *Draft) Prefilled() bool {
	return d.prefilled
}

func (d *Draft) Submitted() bool {
	return d.submitted
}

func (d *Draft) Grid() TimeGrid {
	return d.grid
}

func (d *Draft) QuickDates() []QuickDate {
	return QuickDates(d.now())
}

func (d *Draft) SelectQuickDate(label string) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	for _, q := range d.QuickDates() {
		if q.Label == label {
			d.date = q.Date
			return nil
		}
	}
	return ErrUnknownQuickDate
}

// SelectDate is the calendar picker. It touches no other field.
func (d *Draft) SelectDate(date string) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	now := d.now()
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), now.Location())
	if err != nil {
		return ErrInvalidDate
	}
	if parsed.Before(startOfDay(now)) {
		return ErrPastDate
	}
	d.date = parsed.Format(dateLayout)
	return nil
}

// SelectTime sets the single selected slot; a slot from the other grid is
// thereby deselected.
func (d *Draft) SelectTime(slot string) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	if _, ok := d.grid.MealOf(slot); !ok {
		return ErrUnknownSlot
	}
	d.slot = slot
	return nil
}

// SelectedSlot returns the chosen slot if it belongs to the given grid.
func (d *Draft) SelectedSlot(meal Meal) string {
	if m, ok := d.grid.MealOf(d.slot); ok && m == meal {
		return d.slot
	}
	return ""
}

func (d *Draft) IncAdults() error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.adults++
	return nil
}

func (d *Draft) DecAdults() error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	if d.adults > 1 {
		d.adults--
	}
	return nil
}

func (d *Draft) IncChildren() error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.children++
	return nil
}

func (d *Draft) DecChildren() error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	if d.children > 0 {
		d.children--
	}
	return nil
}

func (d *Draft) SetSpecialRequest(text string) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.specialRequest = strings.TrimSpace(text)
	return nil
}

func (d *Draft) SetNotify(prefs models.NotifyPrefs) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.notify = prefs
	return nil
}

func (d *Draft) SetPolicyConsent(v bool) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.policyConsent = v
	return nil
}

func (d *Draft) SetPrivacyConsent(v bool) error {
	if d.submitted {
		return ErrDraftSubmitted
	}
	d.privacyConsent = v
	return nil
}

func (d *Draft) PartySize() int {
	return d.adults + d.children
}

// EstimatedCost is derived from the current party on every call.
func (d *Draft) EstimatedCost() int64 {
	return d.pricing.Estimate(d.adults, d.children)
}

func (d *Draft) CostBreakdown() []CostLine {
	return d.pricing.Breakdown(d.adults, d.children)
}

// CanSubmit is date, time and both mandatory consents. Notification toggles
// do not count.
func (d *Draft) CanSubmit() bool {
	return !d.submitted && d.date != "" && d.slot != "" && d.policyConsent && d.privacyConsent
}

func (d *Draft) DateLabel() string {
	return DateLabel(d.date, d.now())
}

func (d *Draft) PartySummary() string {
	if d.children > 0 {
		return fmt.Sprintf("성인 %d명, 어린이 %d명", d.adults, d.children)
	}
	return fmt.Sprintf("성인 %d명", d.adults)
}

// Request converts the draft into the reservation body. It does not mark the
// draft submitted; call MarkSubmitted once the service accepted it.
func (d *Draft) Request() (models.ReservationRequest, error) {
	if d.submitted {
		return models.ReservationRequest{}, ErrDraftSubmitted
	}
	if !d.CanSubmit() {
		return models.ReservationRequest{}, ErrNotEligible
	}
	notify := d.notify
	return models.ReservationRequest{
		RestaurantID:   d.restaurant.ID,
		RestaurantName: d.restaurant.Name,
		Date:           d.date,
		Time:           d.slot,
		PartySize:      d.PartySize(),
		Adults:         d.adults,
		Children:       d.children,
		EstimatedCost:  d.EstimatedCost(),
		SpecialRequest: d.specialRequest,
		Notify:         &notify,
	}, nil
}

func (d *Draft) MarkSubmitted() {
	d.submitted = true
}
