package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestaflow/prestaflow-api/internal/jobs"
	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
)

type mockNotificationRepository struct {
	repository.NotificationRepository
	mockCreate func(ctx context.Context, notification *models.Notification) error
}

func (m *mockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return m.mockCreate(ctx, notification)
}

func TestNotificationService_NotifyUserAsync(t *testing.T) {
	created := make(chan *models.Notification, 1)
	repo := &mockNotificationRepository{
		mockCreate: func(ctx context.Context, n *models.Notification) error {
			created <- n
			return nil
		},
	}

	worker := jobs.NewWorker(1)
	defer worker.Shutdown()

	svc := NewNotificationService(repo, worker)
	svc.NotifyUserAsync(7, "Pago anulado", "El pago REC-2026-00001 fue anulado",
		models.NotificationTypePaymentVoided)

	select {
	case n := <-created:
		assert.Equal(t, uint(7), n.UserID)
		assert.Equal(t, "Pago anulado", n.Title)
		require.NotNil(t, n.NotificationType)
		assert.Equal(t, models.NotificationTypePaymentVoided, *n.NotificationType)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not created by the worker")
	}
}

func TestNotificationService_NotifyUserAsync_NoWorker(t *testing.T) {
	var got *models.Notification
	repo := &mockNotificationRepository{
		mockCreate: func(ctx context.Context, n *models.Notification) error {
			got = n
			return nil
		},
	}

	svc := NewNotificationService(repo, nil)
	svc.NotifyUserAsync(3, "Cuota próxima a vencer", "La cuota 2 vence pronto",
		models.NotificationTypeInstallmentDue)

	require.NotNil(t, got)
	assert.Equal(t, uint(3), got.UserID)
}
