package services

import (
	"context"

	"github.com/prestaflow/prestaflow-api/internal/jobs"
	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/pkg/logger"
)

type NotificationService struct {
	repo   repository.NotificationRepository
	worker *jobs.Worker
}

func NewNotificationService(repo repository.NotificationRepository, worker *jobs.Worker) *NotificationService {
	return &NotificationService{repo: repo, worker: worker}
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) Create(ctx context.Context, notification *models.Notification) error {
	return s.repo.Create(ctx, notification)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyUserAsync creates the notification on the worker pool so the caller's
// request path never waits on it. Without a worker it degrades to synchronous,
// which is what unit tests use.
func (s *NotificationService) NotifyUserAsync(userID uint, title, message, notifType string) {
	if s.worker == nil {
		if err := s.NotifyUser(context.Background(), userID, title, message, notifType); err != nil {
			logger.Error("failed to create notification", "user_id", userID, "error", err)
		}
		return
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.NotifyUser(ctx, userID, title, message, notifType)
	})
}
