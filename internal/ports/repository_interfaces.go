package ports

import (
	"context"
	"time"

	"dependency-manager/internal/model"
)

// UserRepository : SQL слой учетных записей
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	RecordLoginFailure(ctx context.Context, uuid string, attempts int, lockUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, uuid string, loginAt time.Time) error
	UpdatePassword(ctx context.Context, uuid, newPasswordHash string, changedAt time.Time) error
}

// TokenRepository : Redis реестр отозванных и активных токенов
type TokenRepository interface {
	BlacklistAccessToken(ctx context.Context, token string, expireAt time.Time) error
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
	StoreRefreshToken(ctx context.Context, userUUID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userUUID string) (string, error)
	DeleteRefreshToken(ctx context.Context, userUUID string) error
	SaveSession(ctx context.Context, session *model.Session, ttl time.Duration) error
	GetSession(ctx context.Context, userUUID string) (*model.Session, error)
	DeleteSession(ctx context.Context, userUUID string) error
}

// NotificationRepository : SQL слой уведомлений
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	List(ctx context.Context, userUUID string, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userUUID string) (int, error)
	MarkRead(ctx context.Context, uuid, userUUID string) error
}
