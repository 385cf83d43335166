package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"wellmeet/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNotification(ctx context.Context, ex execer, now time.Time, kind, title, message string, reservationID int64, restaurantID string) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO notifications (type, title, message, reservation_id, restaurant_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		kind, title, message, reservationID, restaurantID, now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the feed newest first.
func (db *DB) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, type, title, message, detail, COALESCE(reservation_id, 0),
		restaurant_id, is_read, created_at FROM notifications ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var (
			n             models.Notification
			id, bookingID int64
		)
		if err := rows.Scan(&id, &n.Type, &n.Title, &n.Message, &n.Detail, &bookingID,
			&n.RestaurantID, &n.IsRead, &n.Time); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ID = strconv.FormatInt(id, 10)
		if bookingID > 0 {
			n.BookingID = strconv.FormatInt(bookingID, 10)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	nid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	result, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, nid)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
