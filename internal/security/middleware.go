package security

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model"
	"dependency-manager/internal/repository"
	"dependency-manager/internal/util"
)

// JWTMiddleware проверяет access токен на каждом защищенном запросе:
// черный список, подпись, существование и активность пользователя,
// смену пароля после выдачи токена, блокировку аккаунта
func JWTMiddleware(jwtService *JWTService, tokenRepository *repository.TokenRepository, userRepository *repository.UserRepository) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, tokenRepository, userRepository, next))
	}
}

func handleAuthentication(jwtService *JWTService, tokenRepository *repository.TokenRepository, userRepository *repository.UserRepository, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		token := BearerToken(request)
		if token == "" {
			util.SendAppError(writer, apperror.Authentication("Access token required"))
			return
		}

		// Недоступный Redis означает, что отзыв проверить нельзя.
		// Для черного списка отказываем (fail closed): отозванный токен
		// не должен проходить из-за падения хранилища
		blacklisted, err := tokenRepository.IsAccessTokenBlacklisted(request.Context(), token)
		if err != nil {
			log.Printf("черный список недоступен, запрос отклонен: %v", err)
			util.SendAppError(writer, apperror.Authentication("Unable to verify token"))
			return
		}
		if blacklisted {
			util.SendAppError(writer, apperror.Authentication("Token has been revoked"))
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			util.SendAppError(writer, apperror.Authentication("Invalid or expired token"))
			return
		}

		user, err := userRepository.FindByUUID(request.Context(), claims.UserUUID)
		if err != nil {
			util.SendAppError(writer, apperror.Authentication("User no longer exists or is inactive"))
			return
		}

		// Токен, выданный до смены пароля, недействителен
		if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
			user.PasswordChangedAt.After(claims.IssuedAt.Time) {
			util.SendAppError(writer, apperror.Authentication("Password changed after token was issued. Please log in again."))
			return
		}

		if user.IsLocked(time.Now()) {
			util.SendAppError(writer, apperror.Authentication("Account is temporarily locked"))
			return
		}

		ctx := context.WithValue(request.Context(), UserContextKey, claims)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		next.ServeHTTP(writer, request.WithContext(ctx))
	}
}

// RequireRole пропускает только пользователей с одной из указанных ролей
func RequireRole(roles ...string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims, err := GetClaimsFromContext(request.Context())
			if err != nil {
				util.SendAppError(writer, apperror.Authentication("Authentication required"))
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(writer, request)
					return
				}
			}

			util.SendAppError(writer, apperror.Authorization("Access denied. Required roles: "+strings.Join(roles, ", ")))
		})
	}
}

// RequireAdmin : сокращение для админских маршрутов
func RequireAdmin() func(handler http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// BearerToken достает токен из заголовка Authorization
func BearerToken(request *http.Request) string {
	authorizationHeader := request.Header.Get("Authorization")
	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authorizationHeader, "Bearer ")
}

// WithClaims кладет claims пользователя в контекст запроса
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetClaimsFromContext возвращает claims текущего пользователя
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, apperror.Authentication("Authentication required")
	}
	return claims, nil
}

// GetTokenFromContext возвращает сырой access токен запроса
func GetTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(TokenContextKey).(string)
	if !ok || token == "" {
		return "", apperror.Authentication("Authentication required")
	}
	return token, nil
}
