package requestresponse

import "time"

// RegisterRequest : тело запроса на регистрацию
type RegisterRequest struct {
	Email     string `json:"email" example:"user@example.com"`
	Password  string `json:"password" example:"Str0ngP@ss!"`
	FirstName string `json:"firstName" example:"Ivan"`
	LastName  string `json:"lastName" example:"Petrov"`
}

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email      string `json:"email" example:"user@example.com"`
	Password   string `json:"password" example:"Str0ngP@ss!"`
	RememberMe bool   `json:"rememberMe" example:"false"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ChangePasswordRequest : запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" example:"Str0ngP@ss!"`
	NewPassword     string `json:"newPassword" example:"Even$tr0nger!"`
}

// ForgotPasswordRequest : запрос на восстановление пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// SessionInfo : информация о сессии в ответе на login
type SessionInfo struct {
	ExpiresIn  string `json:"expiresIn" example:"24h"`
	RememberMe bool   `json:"rememberMe" example:"false"`
}

// TokenSessionInfo : сроки действия access токена в ответе /auth/me
type TokenSessionInfo struct {
	TokenIssuedAt  time.Time `json:"tokenIssuedAt"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
}

// StatusResponse : данные ответа /auth/status, никогда не возвращает ошибку
type StatusResponse struct {
	Authenticated bool        `json:"authenticated"`
	TokenValid    bool        `json:"tokenValid"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
	User          interface{} `json:"user,omitempty"`
	Error         string      `json:"error,omitempty"`
}
