package handler

import (
	"encoding/json"
	"net/http"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model/requestresponse"
	"dependency-manager/internal/ports"
	"dependency-manager/internal/ratelimit"
	"dependency-manager/internal/security"
	"dependency-manager/internal/util"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	authLimiter *ratelimit.Limiter
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	authLimiter *ratelimit.Limiter,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		authLimiter,
	}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создает учетную запись и возвращает пару токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.Envelope "Пользователь создан"
// @Failure 400 {object} requestresponse.Envelope "Некорректный JSON или слабый пароль"
// @Failure 409 {object} requestresponse.Envelope "Email уже занят"
// @Failure 429 {object} requestresponse.Envelope "Превышен лимит запросов"
// @Failure 500 {object} requestresponse.Envelope "Внутренняя ошибка сервера"
// @Router /api/v1/auth/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.SendAppError(w, apperror.Validation("Invalid JSON body"))
		return
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		util.SendAppError(w, apperror.Validation("Email, password, first name, and last name are required"))
		return
	}

	user, tokens, err := h.AuthenticationService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	// Успешная регистрация снимает штраф лимитера с этого IP
	h.authLimiter.ClearForIP(r.Context(), ratelimit.ClientIP(r))

	util.SendSuccess(w, http.StatusCreated, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	}, "User registered successfully")
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Возвращает пару токенов и информацию о сессии
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.Envelope "Успешная аутентификация"
// @Failure 400 {object} requestresponse.Envelope "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.Envelope "Неверные учетные данные или аккаунт заблокирован"
// @Failure 429 {object} requestresponse.Envelope "Превышен лимит запросов"
// @Failure 500 {object} requestresponse.Envelope "Внутренняя ошибка сервера"
// @Router /api/v1/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.SendAppError(w, apperror.Validation("Invalid JSON body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		util.SendAppError(w, apperror.Validation("Email and password are required"))
		return
	}

	user, tokens, session, err := h.AuthenticationService.Login(
		r.Context(), req.Email, req.Password, req.RememberMe, r.UserAgent(), ratelimit.ClientIP(r))
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	h.authLimiter.ClearForIP(r.Context(), ratelimit.ClientIP(r))

	util.SendSuccess(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"tokens":  tokens,
		"session": session,
	}, "Login successful")
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обменивает действующий refresh токен на новую пару
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.Envelope "Новая пара токенов"
// @Failure 400 {object} requestresponse.Envelope "Неверный JSON"
// @Failure 401 {object} requestresponse.Envelope "Невалидный refresh токен"
// @Failure 500 {object} requestresponse.Envelope "Внутренняя ошибка сервера"
// @Router /api/v1/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.SendAppError(w, apperror.Validation("Invalid JSON body"))
		return
	}

	if req.RefreshToken == "" {
		util.SendAppError(w, apperror.Validation("Refresh token is required"))
		return
	}

	user, tokens, err := h.AuthenticationService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	util.SendSuccess(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"user":   user,
	}, "Token refreshed successfully")
}

// Logout godoc
// @Summary Завершение сессии
// @Description Заносит access токен в черный список и удаляет refresh токен и сессию
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.Envelope
// @Failure 401 {object} requestresponse.Envelope
// @Failure 500 {object} requestresponse.Envelope
// @Security ApiKeyAuth
// @Router /api/v1/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}
	token, err := security.GetTokenFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	if err := h.AuthenticationService.Logout(r.Context(), token, claims); err != nil {
		util.SendAppError(w, err)
		return
	}

	util.SendSuccess(w, http.StatusOK, nil, "Logged out successfully")
}

// Me godoc
// @Summary Текущий пользователь
// @Description Возвращает профиль и число непрочитанных уведомлений
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.Envelope
// @Failure 401 {object} requestresponse.Envelope
// @Failure 500 {object} requestresponse.Envelope
// @Security ApiKeyAuth
// @Router /api/v1/auth/me [get]
func (h *AuthenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	user, unread, err := h.AuthenticationService.CurrentUser(r.Context(), claims.UserUUID)
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	data := map[string]interface{}{
		"user":                user,
		"unreadNotifications": unread,
	}
	if claims.IssuedAt != nil && claims.ExpiresAt != nil {
		data["session"] = requestresponse.TokenSessionInfo{
			TokenIssuedAt:  claims.IssuedAt.Time,
			TokenExpiresAt: claims.ExpiresAt.Time,
		}
	}

	util.SendSuccess(w, http.StatusOK, data, "User data retrieved successfully")
}

// ChangePassword godoc
// @Summary Смена пароля
// @Description Меняет пароль и принудительно завершает все сессии пользователя
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.ChangePasswordRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.Envelope
// @Failure 400 {object} requestresponse.Envelope
// @Failure 401 {object} requestresponse.Envelope
// @Failure 500 {object} requestresponse.Envelope
// @Security ApiKeyAuth
// @Router /api/v1/auth/change-password [post]
func (h *AuthenticationHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.SendAppError(w, apperror.Validation("Invalid JSON body"))
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		util.SendAppError(w, apperror.Validation("Current password and new password are required"))
		return
	}

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}
	token, err := security.GetTokenFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	if err := h.AuthenticationService.ChangePassword(r.Context(), claims, token, req.CurrentPassword, req.NewPassword); err != nil {
		util.SendAppError(w, err)
		return
	}

	util.SendSuccess(w, http.StatusOK, nil, "Password changed successfully. Please log in again.")
}

// Status godoc
// @Summary Статус аутентификации
// @Description Возвращает состояние токена, не возвращая ошибок
// @Tags Authentication
// @Produce json
// @Param Authorization header string false "Bearer токен"
// @Success 200 {object} requestresponse.Envelope
// @Router /api/v1/auth/status [get]
func (h *AuthenticationHandler) Status(w http.ResponseWriter, r *http.Request) {
	token := security.BearerToken(r)
	status := h.AuthenticationService.Status(r.Context(), token)
	util.SendSuccess(w, http.StatusOK, status, "Authentication status checked")
}

// ForgotPassword godoc
// @Summary Запрос на восстановление пароля
// @Description Всегда отвечает одинаково, не раскрывая существование адреса
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.ForgotPasswordRequest true "Тело запроса"
// @Success 200 {object} requestresponse.Envelope
// @Failure 400 {object} requestresponse.Envelope
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthenticationHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.SendAppError(w, apperror.Validation("Invalid JSON body"))
		return
	}

	if req.Email == "" {
		util.SendAppError(w, apperror.Validation("Email is required"))
		return
	}

	h.AuthenticationService.ForgotPassword(r.Context(), req.Email, ratelimit.ClientIP(r))

	util.SendSuccess(w, http.StatusOK, nil, "If an account with that email exists, a password reset link has been sent.")
}
