package security

import (
	"fmt"
	"time"

	"dependency-manager/config"
	"dependency-manager/internal/model"
	"dependency-manager/internal/util"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserContextKey  contextKey = "user"
	TokenContextKey contextKey = "token"
)

// Claims : полезная нагрузка access токена
type Claims struct {
	UserUUID string `json:"user_uuid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims : полезная нагрузка refresh токена.
// Только UserUUID — refresh токен не должен раскрывать email и роль
type RefreshClaims struct {
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateTokens создает пару access/refresh токенов.
// Access подписывается access-секретом, refresh — отдельным секретом.
// Возвращает также TTL refresh токена: с ним пара сохраняется в реестре
func (service *JWTService) GenerateTokens(user *model.User) (*model.TokensPair, time.Duration, error) {
	accessTTL, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return nil, 0, util.LogError("ошибка парсинга access_token_ttl", err)
	}
	refreshTTL, err := time.ParseDuration(service.RefreshTokenTTL)
	if err != nil {
		return nil, 0, util.LogError("ошибка парсинга refresh_token_ttl", err)
	}

	now := time.Now()

	accessClaims := Claims{
		UserUUID: user.UUID,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "dependency-manager",
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, accessClaims).
		SignedString([]byte(service.AccessSecret))
	if err != nil {
		return nil, 0, util.LogError("ошибка подписи access токена", err)
	}

	refreshClaims := RefreshClaims{
		UserUUID: user.UUID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "dependency-manager",
		},
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, refreshClaims).
		SignedString([]byte(service.RefreshSecret))
	if err != nil {
		return nil, 0, util.LogError("ошибка подписи refresh токена", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, refreshTTL, nil
}

// ValidateAccessToken проверяет подпись и срок действия access токена
func (service *JWTService) ValidateAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := service.parse(tokenStr, claims, service.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken проверяет подпись и срок действия refresh токена
func (service *JWTService) ValidateRefreshToken(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.parse(tokenStr, claims, service.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (service *JWTService) parse(tokenStr string, claims jwt.Claims, secret string) error {
	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil || !jwtToken.Valid {
		return util.LogError("невалидный токен", err)
	}

	return nil
}
