package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"dependency-manager/config"
	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model"
	"dependency-manager/internal/model/requestresponse"
	"dependency-manager/internal/ports"
	"dependency-manager/internal/repository"
	"dependency-manager/internal/security"
	"dependency-manager/internal/util"

	"github.com/google/uuid"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Формулировка одна для несуществующего email и неверного пароля:
// ответ не должен выдавать, какой из факторов не совпал
const invalidCredentialsMessage = "Invalid email or password"

type AuthenticationService struct {
	userRepository         ports.UserRepository
	tokenRepository        ports.TokenRepository
	notificationRepository ports.NotificationRepository
	jwtService             ports.JWTServiceInterface
	cfg                    *config.AppConfig
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	tokenRepository ports.TokenRepository,
	notificationRepository ports.NotificationRepository,
	jwtService ports.JWTServiceInterface,
	cfg *config.AppConfig,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository:         userRepository,
		tokenRepository:        tokenRepository,
		notificationRepository: notificationRepository,
		jwtService:             jwtService,
		cfg:                    cfg,
	}
}

// Register создает новую учетную запись и сразу выдает пару токенов.
// В отличие от login, занятый email подтверждается явно (409):
// владелец адреса должен понять, что аккаунт уже существует
func (s *AuthenticationService) Register(ctx context.Context, email, password, firstName, lastName string) (*model.User, *model.TokensPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !emailRegexp.MatchString(email) {
		return nil, nil, apperror.Validation("Please provide a valid email address")
	}

	if requirements := security.ValidatePasswordStrength(password); len(requirements) > 0 {
		return nil, nil, apperror.Validation("Password requirements not met").
			WithDetails(map[string]interface{}{"requirements": requirements})
	}

	exists, err := s.userRepository.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}
	if exists {
		return nil, nil, apperror.Conflict("User with this email already exists")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         model.RoleTeamMember,
		IsActive:     true,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, apperror.Conflict("User with this email already exists")
		}
		return nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}

	tokens, err := s.issueTokens(ctx, created)
	if err != nil {
		return nil, nil, err
	}

	s.notifyBestEffort(ctx, &model.Notification{
		UUID:     uuid.New().String(),
		UserUUID: created.UUID,
		Type:     model.NotificationTypeSystemAlert,
		Title:    "Welcome to Dependency Management!",
		Message:  "Your account has been created successfully. Start by exploring your dashboard.",
		Priority: model.NotificationPriorityMedium,
	})

	util.AuditAuth("registration", created.Email, "")

	return created, tokens, nil
}

// Login реализует машину состояний входа с блокировкой аккаунта:
// 5 подряд неудачных проверок пароля переводят аккаунт в Locked на 30 минут,
// по истечении срока аккаунт возвращается в Active сам
func (s *AuthenticationService) Login(ctx context.Context, email, password string, rememberMe bool, userAgent, ipAddress string) (*model.User, *model.TokensPair, *requestresponse.SessionInfo, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	user, err := s.userRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			util.AuditAuth(util.AuditLoginFailed, email, ipAddress)
			return nil, nil, nil, apperror.Authentication(invalidCredentialsMessage)
		}
		return nil, nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}

	// Пока lock_until в будущем — отказ без проверки пароля и без инкремента счетчика
	if user.IsLocked(now) {
		util.AuditAuth(util.AuditLoginLocked, user.UUID, ipAddress)
		return nil, nil, nil, apperror.Authentication("Account is temporarily locked due to multiple failed login attempts")
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		attempts := user.FailedLoginAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.cfg.Lockout.Threshold {
			until := now.Add(s.cfg.Lockout.LockoutDuration())
			lockUntil = &until
			util.AuditAuth(util.AuditAccountLocked, user.UUID, ipAddress)
		}

		if err := s.userRepository.RecordLoginFailure(ctx, user.UUID, attempts, lockUntil); err != nil {
			log.Printf("не удалось сохранить счетчик неудачных попыток: %v", err)
		}

		util.AuditAuth(util.AuditLoginFailed, user.UUID, ipAddress)
		return nil, nil, nil, apperror.Authentication(invalidCredentialsMessage)
	}

	if err := s.userRepository.RecordLoginSuccess(ctx, user.UUID, now); err != nil {
		return nil, nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}

	sessionTTL := 24 * time.Hour
	expiresIn := s.cfg.JWT.AccessTokenTTL
	if rememberMe {
		sessionTTL = 7 * 24 * time.Hour
		expiresIn = s.cfg.JWT.RefreshTokenTTL
	}

	// Запись сессии информационная: ее потеря не ломает аутентификацию
	session := &model.Session{
		UserUUID:   user.UUID,
		Email:      user.Email,
		LoginTime:  now.UTC(),
		IpAddress:  ipAddress,
		UserAgent:  userAgent,
		RememberMe: rememberMe,
	}
	if err := s.tokenRepository.SaveSession(ctx, session, sessionTTL); err != nil {
		log.Printf("не удалось сохранить сессию: %v", err)
	}

	util.AuditAuth(util.AuditLoginSuccess, user.UUID, ipAddress)

	return user, tokens, &requestresponse.SessionInfo{
		ExpiresIn:  expiresIn,
		RememberMe: rememberMe,
	}, nil
}

// Refresh обменивает refresh токен на новую пару.
// Доверяется только токен, лежащий в реестре: выдача новой пары
// перезаписывает запись, так что прежний refresh токен отваливается
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*model.User, *model.TokensPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, apperror.Authentication("Invalid refresh token")
	}

	stored, err := s.tokenRepository.GetRefreshToken(ctx, claims.UserUUID)
	if err != nil {
		// Реестр недоступен — единственность refresh токена проверить нельзя, отказ
		return nil, nil, apperror.Authentication("Unable to verify refresh token").WithCause(err)
	}
	if stored == "" || stored != refreshToken {
		util.AuditAuth("invalid_refresh_token", claims.UserUUID, "")
		return nil, nil, apperror.Authentication("Invalid refresh token")
	}

	user, err := s.userRepository.FindByUUID(ctx, claims.UserUUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.Authentication("User no longer exists or is inactive")
		}
		return nil, nil, apperror.Internal("Internal server error").WithCause(err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	util.AuditAuth(util.AuditTokenRefresh, user.UUID, "")
	return user, tokens, nil
}

// Logout отзывает access токен до его собственного exp и удаляет
// refresh токен и сессию пользователя
func (s *AuthenticationService) Logout(ctx context.Context, accessToken string, claims *security.Claims) error {
	var expireAt time.Time
	if claims.ExpiresAt != nil {
		expireAt = claims.ExpiresAt.Time
	}

	if err := s.tokenRepository.BlacklistAccessToken(ctx, accessToken, expireAt); err != nil {
		return apperror.Internal("Internal server error").WithCause(err)
	}

	// Удаление идемпотентно, остатки доберет TTL
	if err := s.tokenRepository.DeleteRefreshToken(ctx, claims.UserUUID); err != nil {
		log.Printf("не удалось удалить refresh токен: %v", err)
	}
	if err := s.tokenRepository.DeleteSession(ctx, claims.UserUUID); err != nil {
		log.Printf("не удалось удалить сессию: %v", err)
	}

	util.AuditAuth(util.AuditLogout, claims.UserUUID, "")
	return nil
}

// ChangePassword меняет пароль и завершает все сессии пользователя:
// текущий access токен попадает в черный список, refresh токен удаляется
func (s *AuthenticationService) ChangePassword(ctx context.Context, claims *security.Claims, accessToken, currentPassword, newPassword string) error {
	user, err := s.userRepository.FindByUUID(ctx, claims.UserUUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.Authentication("User no longer exists or is inactive")
		}
		return apperror.Internal("Internal server error").WithCause(err)
	}

	if !security.CheckPassword(currentPassword, user.PasswordHash) {
		util.AuditAuth("password_change_failed", user.UUID, "")
		return apperror.Authentication("Current password is incorrect")
	}

	if requirements := security.ValidatePasswordStrength(newPassword); len(requirements) > 0 {
		return apperror.Validation("New password requirements not met").
			WithDetails(map[string]interface{}{"requirements": requirements})
	}

	if security.CheckPassword(newPassword, user.PasswordHash) {
		return apperror.Validation("New password must be different from current password")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return apperror.Internal("Internal server error").WithCause(err)
	}

	now := time.Now()
	if err := s.userRepository.UpdatePassword(ctx, user.UUID, hash, now); err != nil {
		return apperror.Internal("Internal server error").WithCause(err)
	}

	var expireAt time.Time
	if claims.ExpiresAt != nil {
		expireAt = claims.ExpiresAt.Time
	}
	if err := s.tokenRepository.BlacklistAccessToken(ctx, accessToken, expireAt); err != nil {
		return apperror.Internal("Internal server error").WithCause(err)
	}
	if err := s.tokenRepository.DeleteRefreshToken(ctx, user.UUID); err != nil {
		log.Printf("не удалось удалить refresh токен: %v", err)
	}
	if err := s.tokenRepository.DeleteSession(ctx, user.UUID); err != nil {
		log.Printf("не удалось удалить сессию: %v", err)
	}

	s.notifyBestEffort(ctx, &model.Notification{
		UUID:     uuid.New().String(),
		UserUUID: user.UUID,
		Type:     model.NotificationTypeSystemAlert,
		Title:    "Password Changed",
		Message:  "Your password has been changed successfully. Please log in again.",
		Priority: model.NotificationPriorityHigh,
	})

	util.AuditAuth(util.AuditPasswordsSet, user.UUID, "")
	return nil
}

// CurrentUser возвращает профиль и число непрочитанных уведомлений
func (s *AuthenticationService) CurrentUser(ctx context.Context, userUUID string) (*model.User, int, error) {
	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, 0, apperror.Authentication("User no longer exists or is inactive")
		}
		return nil, 0, apperror.Internal("Internal server error").WithCause(err)
	}

	unread, err := s.notificationRepository.UnreadCount(ctx, user.UUID)
	if err != nil {
		return nil, 0, apperror.Internal("Internal server error").WithCause(err)
	}

	return user, unread, nil
}

// Status отвечает на вопрос "авторизован ли я" и никогда не возвращает ошибку
func (s *AuthenticationService) Status(ctx context.Context, accessToken string) *requestresponse.StatusResponse {
	if accessToken == "" {
		return &requestresponse.StatusResponse{Authenticated: false}
	}

	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return &requestresponse.StatusResponse{
			Authenticated: false,
			TokenValid:    false,
			Error:         "Invalid or expired token",
		}
	}

	resp := &requestresponse.StatusResponse{TokenValid: true}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		resp.ExpiresAt = &expiresAt
	}

	user, err := s.userRepository.FindByUUID(ctx, claims.UserUUID)
	if err == nil {
		resp.Authenticated = true
		resp.User = user
	}

	return resp
}

// ForgotPassword фиксирует запрос на восстановление, не раскрывая,
// существует ли адрес: ответ клиенту всегда одинаковый
func (s *AuthenticationService) ForgotPassword(ctx context.Context, email, ipAddress string) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepository.FindByEmail(ctx, email)
	if err == nil {
		util.AuditAuth(util.AuditPasswordReset, user.UUID, ipAddress)
	}
}

// issueTokens выдает пару токенов и сохраняет refresh в реестре,
// вытесняя прежний: доверенный refresh токен всегда ровно один
func (s *AuthenticationService) issueTokens(ctx context.Context, user *model.User) (*model.TokensPair, error) {
	tokens, refreshTTL, err := s.jwtService.GenerateTokens(user)
	if err != nil {
		return nil, apperror.Internal("Internal server error").WithCause(err)
	}

	if err := s.tokenRepository.StoreRefreshToken(ctx, user.UUID, tokens.RefreshToken, refreshTTL); err != nil {
		return nil, apperror.Internal("Internal server error").WithCause(err)
	}

	return tokens, nil
}

func (s *AuthenticationService) notifyBestEffort(ctx context.Context, notification *model.Notification) {
	if err := s.notificationRepository.Create(ctx, notification); err != nil {
		log.Printf("не удалось создать уведомление: %v", err)
	}
}
