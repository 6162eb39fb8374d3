package repository

import (
	"context"
	"errors"

	"dependency-manager/config"
	"dependency-manager/internal/model"
	"dependency-manager/internal/util"
)

// ErrNotificationNotFound : уведомление не существует или принадлежит другому пользователю
var ErrNotificationNotFound = errors.New("уведомление не найдено")

type NotificationRepository struct {
	*config.Database
}

func NewNotificationRepository(database *config.Database) *NotificationRepository {
	return &NotificationRepository{database}
}

// Create : сохраняет уведомление пользователя
func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
	INSERT INTO notifications (uuid, user_uuid, type, title, message, priority, read)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`
	_, err := r.DB.ExecContext(ctx, query,
		notification.UUID,
		notification.UserUUID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Priority,
	)
	if err != nil {
		return util.LogError("[NotificationRepo] ошибка вставки уведомления", err)
	}
	return nil
}

// List : последние уведомления пользователя, новые сверху
func (r *NotificationRepository) List(ctx context.Context, userUUID string, limit int) ([]model.Notification, error) {
	query := `
	SELECT uuid, user_uuid, type, title, message, priority, read, created_at
	FROM notifications
	WHERE user_uuid = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	notifications := []model.Notification{}
	if err := r.DB.SelectContext(ctx, &notifications, query, userUUID, limit); err != nil {
		return nil, util.LogError("[NotificationRepo] ошибка выборки уведомлений", err)
	}
	return notifications, nil
}

// UnreadCount : количество непрочитанных уведомлений пользователя
func (r *NotificationRepository) UnreadCount(ctx context.Context, userUUID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_uuid = $1 AND read = FALSE`
	err := r.DB.GetContext(ctx, &count, query, userUUID)
	if err != nil {
		return 0, util.LogError("[NotificationRepo] ошибка подсчета уведомлений", err)
	}
	return count, nil
}

// MarkRead : отмечает уведомление прочитанным.
// Фильтр по user_uuid не дает пометить чужое уведомление
func (r *NotificationRepository) MarkRead(ctx context.Context, uuid, userUUID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE uuid = $1 AND user_uuid = $2`
	result, err := r.DB.ExecContext(ctx, query, uuid, userUUID)
	if err != nil {
		return util.LogError("[NotificationRepo] не удалось отметить уведомление", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[NotificationRepo] ошибка чтения результата обновления", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
