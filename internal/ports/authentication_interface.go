package ports

import (
	"context"

	"dependency-manager/internal/model"
	"dependency-manager/internal/model/requestresponse"
	"dependency-manager/internal/security"
)

type AuthenticationService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*model.User, *model.TokensPair, error)
	Login(ctx context.Context, email, password string, rememberMe bool, userAgent, ipAddress string) (*model.User, *model.TokensPair, *requestresponse.SessionInfo, error)
	Refresh(ctx context.Context, refreshToken string) (*model.User, *model.TokensPair, error)
	Logout(ctx context.Context, accessToken string, claims *security.Claims) error
	ChangePassword(ctx context.Context, claims *security.Claims, accessToken, currentPassword, newPassword string) error
	CurrentUser(ctx context.Context, userUUID string) (*model.User, int, error)
	Status(ctx context.Context, accessToken string) *requestresponse.StatusResponse
	ForgotPassword(ctx context.Context, email, ipAddress string)
}

type NotificationService interface {
	List(ctx context.Context, userUUID string) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, notificationUUID, userUUID string) error
}
