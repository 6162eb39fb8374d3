package service

import (
	"context"
	"errors"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model"
	"dependency-manager/internal/ports"
	"dependency-manager/internal/repository"
)

const notificationsPageSize = 50

type NotificationService struct {
	notificationRepository ports.NotificationRepository
}

func NewNotificationService(notificationRepository ports.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepository: notificationRepository}
}

// List возвращает последние уведомления пользователя и число непрочитанных
func (s *NotificationService) List(ctx context.Context, userUUID string) ([]model.Notification, int, error) {
	notifications, err := s.notificationRepository.List(ctx, userUUID, notificationsPageSize)
	if err != nil {
		return nil, 0, apperror.Internal("Internal server error").WithCause(err)
	}

	unread, err := s.notificationRepository.UnreadCount(ctx, userUUID)
	if err != nil {
		return nil, 0, apperror.Internal("Internal server error").WithCause(err)
	}

	return notifications, unread, nil
}

// MarkRead помечает уведомление прочитанным. userUUID входит в условие
// запроса, поэтому чужое уведомление неотличимо от несуществующего
func (s *NotificationService) MarkRead(ctx context.Context, notificationUUID, userUUID string) error {
	if err := s.notificationRepository.MarkRead(ctx, notificationUUID, userUUID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return apperror.Internal("Internal server error").WithCause(err)
	}
	return nil
}
