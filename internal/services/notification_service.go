package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type NotificationService struct {
	notifications NotificationStore
}

func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) Create(ctx context.Context, n core.Notification) (core.Notification, error) {
	if n.Title == "" {
		return core.Notification{}, core.ErrEmptyName
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority == "" {
		n.Priority = "low"
	}
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()

	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return core.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *NotificationService) FindAll(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	return s.notifications.ListNotifications(ctx, userID, unreadOnly)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnreadNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notifications.MarkNotificationRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Remove(ctx context.Context, id, userID string) error {
	return s.notifications.DeleteNotification(ctx, id, userID)
}
