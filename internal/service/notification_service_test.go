package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model"
	"dependency-manager/internal/repository"
	"dependency-manager/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestNotificationService() (*service.NotificationService, *MockNotificationRepository) {
	mockNotificationRepo := new(MockNotificationRepository)
	return service.NewNotificationService(mockNotificationRepo), mockNotificationRepo
}

// ===== List =====

func TestNotificationsList_Success(t *testing.T) {
	svc, mockRepo := newTestNotificationService()
	ctx := context.Background()

	stored := []model.Notification{
		{UUID: "notif-1", UserUUID: "user-1", Title: "Password changed", CreatedAt: time.Now()},
	}
	mockRepo.On("List", ctx, "user-1", mock.Anything).Return(stored, nil)
	mockRepo.On("UnreadCount", ctx, "user-1").Return(1, nil)

	notifications, unread, err := svc.List(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, stored, notifications)
	assert.Equal(t, 1, unread)
	mockRepo.AssertExpectations(t)
}

func TestNotificationsList_RepositoryError(t *testing.T) {
	svc, mockRepo := newTestNotificationService()
	ctx := context.Background()

	mockRepo.On("List", ctx, "user-1", mock.Anything).Return(nil, errors.New("база недоступна"))

	_, _, err := svc.List(ctx, "user-1")

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternalServerError, appErr.Code)
}

// ===== MarkRead =====

func TestNotificationsMarkRead_Success(t *testing.T) {
	svc, mockRepo := newTestNotificationService()
	ctx := context.Background()

	mockRepo.On("MarkRead", ctx, "notif-1", "user-1").Return(nil)

	require.NoError(t, svc.MarkRead(ctx, "notif-1", "user-1"))
	mockRepo.AssertExpectations(t)
}

func TestNotificationsMarkRead_NotFound(t *testing.T) {
	svc, mockRepo := newTestNotificationService()
	ctx := context.Background()

	mockRepo.On("MarkRead", ctx, "notif-1", "user-1").Return(repository.ErrNotificationNotFound)

	err := svc.MarkRead(ctx, "notif-1", "user-1")

	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeResourceNotFound, appErr.Code)
}
