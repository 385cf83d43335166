package service

import (
	"context"
	"errors"
	"testing"

	"wellmeet/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationFeed struct {
	mock.Mock
}

func (m *mockNotificationFeed) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationFeed) MarkNotificationRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationFeed) MarkAllNotificationsRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestNotificationService(t *testing.T) {
	feed := new(mockNotificationFeed)
	logger := zerolog.Nop()
	svc := NewNotificationService(feed, &logger)
	ctx := context.Background()

	list := []models.Notification{
		{ID: "3", Type: "booking_confirmed", IsRead: false},
		{ID: "2", Type: "reminder", IsRead: true},
		{ID: "1", Type: "review_reply", IsRead: false},
	}

	t.Run("Inbox", func(t *testing.T) {
		feed.On("ListNotifications", ctx).Return(list, nil).Once()
		got, unread, err := svc.Inbox(ctx)
		require.NoError(t, err)
		assert.Equal(t, list, got)
		assert.Equal(t, 2, unread)
	})

	t.Run("UnreadCountError", func(t *testing.T) {
		feed.On("ListNotifications", ctx).Return(nil, errors.New("down")).Once()
		_, err := svc.UnreadCount(ctx)
		assert.Error(t, err)
	})

	t.Run("MarkRead", func(t *testing.T) {
		feed.On("MarkNotificationRead", ctx, "3").Return(nil).Once()
		assert.NoError(t, svc.MarkRead(ctx, "3"))
	})

	t.Run("MarkAllRead", func(t *testing.T) {
		feed.On("MarkAllNotificationsRead", ctx).Return(errors.New("down")).Once()
		assert.Error(t, svc.MarkAllRead(ctx))
	})

	feed.AssertExpectations(t)
}
