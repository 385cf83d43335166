package service

import (
	"context"

	"wellmeet/internal/domain"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
)

type NotificationService struct {
	feed   domain.NotificationFeed
	logger *zerolog.Logger
}

func NewNotificationService(feed domain.NotificationFeed, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{feed: feed, logger: logger}
}

// Inbox returns the notifications newest first and the unread counter.
func (s *NotificationService) Inbox(ctx context.Context) ([]models.Notification, int, error) {
	list, err := s.feed.ListNotifications(ctx)
	if err != nil {
		return nil, 0, err
	}
	return list, countUnread(list), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	_, n, err := s.Inbox(ctx)
	return n, err
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.feed.MarkNotificationRead(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("notification_id", id).Msg("Failed to mark notification read")
		return err
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.feed.MarkAllNotificationsRead(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark all notifications read")
		return err
	}
	return nil
}

func countUnread(list []models.Notification) int {
	n := 0
	for _, item := range list {
		if !item.IsRead {
			n++
		}
	}
	return n
}
