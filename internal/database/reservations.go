package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wellmeet/internal/booking"
	"wellmeet/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

const reservationColumns = `id, restaurant_id, restaurant_name, date, time, party_size, adults, children,
	estimated_cost, status, confirmation_number, special_request, created_at, updated_at, version`

// party returns the stored party size and cost. Both are derived from the
// adult and child counts; the request's own totals are ignored.
func (db *DB) party(req models.ReservationRequest) (int, int64, error) {
	if req.Adults < 1 || req.Children < 0 {
		return 0, 0, ErrInvalidParty
	}
	return req.Adults + req.Children, db.pricing.Estimate(req.Adults, req.Children), nil
}

// CreateReservation stores a new pending reservation and assigns its
// confirmation number (WM + yymmdd + sequence of the day).
func (db *DB) CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.BookingRecord, error) {
	partySize, cost, err := db.party(req)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	day := now.Format("2006-01-02")

	var sameDay int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE substr(created_at, 1, 10) = ?`, day).Scan(&sameDay)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	confirmation := fmt.Sprintf("WM%s%03d", now.Format("060102"), sameDay+1)

	result, err := tx.ExecContext(ctx, `INSERT INTO reservations (
				restaurant_id, restaurant_name, date, time, party_size, adults, children,
				estimated_cost, status, confirmation_number, special_request, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		req.RestaurantID,
		req.RestaurantName,
		req.Date,
		req.Time,
		partySize,
		req.Adults,
		req.Children,
		cost,
		models.StatusPending,
		confirmation,
		req.SpecialRequest,
		now.Format(timeLayout),
		now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := insertNotification(ctx, tx, now, "booking_confirmed", "예약 접수",
		fmt.Sprintf("%s %s %s 예약이 접수되었습니다", req.RestaurantName, req.Date, req.Time),
		id, req.RestaurantID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	db.logger.Info().
		Int64("reservation_id", id).
		Str("confirmation", confirmation).
		Msg("Reservation created")

	return db.GetReservation(ctx, strconv.FormatInt(id, 10))
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.BookingRecord, error) {
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, rid)
	rec, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return rec, nil
}

// ListReservations returns reservations ordered by visit date, latest first.
func (db *DB) ListReservations(ctx context.Context) ([]models.BookingRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY date DESC, time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	out := []models.BookingRecord{}
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateReservation rewrites date, time, party and special request in place.
// Only statuses that allow modify can be rewritten.
func (db *DB) UpdateReservation(ctx context.Context, id string, req models.ReservationRequest) (*models.BookingRecord, error) {
	partySize, cost, err := db.party(req)
	if err != nil {
		return nil, err
	}
	current, err := db.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Allows(current.Status, booking.ActionModify) {
		return nil, fmt.Errorf("%w: modify on %s", ErrInvalidTransition, current.Status)
	}

	result, err := db.ExecContext(ctx, `UPDATE reservations
		SET date = ?, time = ?, party_size = ?, adults = ?, children = ?, estimated_cost = ?,
		    special_request = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		req.Date, req.Time, partySize, req.Adults, req.Children, cost,
		req.SpecialRequest, time.Now().Format(timeLayout), current.ID, current.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrConcurrentModification
	}

	return db.GetReservation(ctx, id)
}

// UpdateReservationStatus applies a status change allowed by the lifecycle.
// The version check makes the read and the write one step.
func (db *DB) UpdateReservationStatus(ctx context.Context, id, status string) (*models.BookingRecord, error) {
	current, err := db.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	if err := db.UpdateReservationStatusWithVersion(ctx, id, current.Version, status); err != nil {
		return nil, err
	}

	if status == models.StatusCancelled {
		rid, _ := parseID(id)
		if err := insertNotification(ctx, db, time.Now(), "booking_cancelled", "예약 취소",
			fmt.Sprintf("%s %s %s 예약이 취소되었습니다", current.RestaurantName, current.Date, current.Time),
			rid, current.RestaurantID); err != nil {
			db.logger.Warn().Err(err).Str("reservation_id", id).Msg("Failed to record cancel notification")
		}
	}

	return db.GetReservation(ctx, id)
}

func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}
	result, err := db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, time.Now().Format(timeLayout), rid, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.BookingRecord, error) {
	var (
		rec                  models.BookingRecord
		id                   int64
		createdAt, updatedAt string
	)
	err := row.Scan(
		&id, &rec.RestaurantID, &rec.RestaurantName, &rec.Date, &rec.Time, &rec.PartySize,
		&rec.Adults, &rec.Children, &rec.EstimatedCost, &rec.Status, &rec.ConfirmationNumber,
		&rec.SpecialRequest, &createdAt, &updatedAt, &rec.Version,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt, _ = time.ParseInLocation(timeLayout, createdAt, time.Local)
	rec.UpdatedAt, _ = time.ParseInLocation(timeLayout, updatedAt, time.Local)
	return &rec, nil
}

func parseID(id string) (int64, error) {
	rid, err := strconv.ParseInt(id, 10, 64)
	if err != nil || rid <= 0 {
		return 0, ErrNotFound
	}
	return rid, nil
}
