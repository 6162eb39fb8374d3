package model

import "time"

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (JWT, подписан отдельным секретом)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refreshToken"`
}

// Session : запись активной сессии пользователя (хранится в Redis)
type Session struct {
	UserUUID   string    `json:"user_uuid"`
	Email      string    `json:"email"`
	LoginTime  time.Time `json:"login_time"`
	IpAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	RememberMe bool      `json:"remember_me"`
}
