package ports

import (
	"time"

	"dependency-manager/internal/model"
	"dependency-manager/internal/security"
)

type JWTServiceInterface interface {
	GenerateTokens(user *model.User) (*model.TokensPair, time.Duration, error)
	ValidateAccessToken(tokenStr string) (*security.Claims, error)
	ValidateRefreshToken(tokenStr string) (*security.RefreshClaims, error)
}
