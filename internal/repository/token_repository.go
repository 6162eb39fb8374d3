package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dependency-manager/config"
	"dependency-manager/internal/model"
	"dependency-manager/internal/util"

	"github.com/redis/go-redis/v9"
)

// TokenRepository : реестр отозванных access токенов, активных refresh токенов
// и сессий пользователей. Все записи живут в Redis с TTL
type TokenRepository struct {
	client *config.RedisClient
}

func NewTokenRepository(rdb *config.RedisClient) *TokenRepository {
	return &TokenRepository{rdb}
}

// BlacklistAccessToken заносит access токен в черный список до его собственного exp.
// Токен с истекшим exp не сохраняется — защищать уже нечего
func (r *TokenRepository) BlacklistAccessToken(ctx context.Context, token string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Client.Set(ctx, r.blacklistKey(token), "true", ttl).Err(); err != nil {
		return util.LogError("ошибка записи токена в черный список", err)
	}
	return nil
}

// IsAccessTokenBlacklisted проверяет, отозван ли access токен.
// Ошибка означает недоступность Redis — решение принимает вызывающая сторона
func (r *TokenRepository) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	val, err := r.client.Client.Get(ctx, r.blacklistKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, util.LogError("ошибка чтения черного списка из Redis", err)
	}
	return val == "true", nil
}

// StoreRefreshToken сохраняет refresh токен пользователя, перезаписывая прежний.
// На одного пользователя доверяется ровно один refresh токен
func (r *TokenRepository) StoreRefreshToken(ctx context.Context, userUUID, token string, ttl time.Duration) error {
	if err := r.client.Client.Set(ctx, r.refreshKey(userUUID), token, ttl).Err(); err != nil {
		return util.LogError("ошибка сохранения refresh токена в Redis", err)
	}
	return nil
}

// GetRefreshToken возвращает сохраненный refresh токен или пустую строку
func (r *TokenRepository) GetRefreshToken(ctx context.Context, userUUID string) (string, error) {
	val, err := r.client.Client.Get(ctx, r.refreshKey(userUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", util.LogError("ошибка чтения refresh токена из Redis", err)
	}
	return val, nil
}

func (r *TokenRepository) DeleteRefreshToken(ctx context.Context, userUUID string) error {
	if err := r.client.Client.Del(ctx, r.refreshKey(userUUID)).Err(); err != nil {
		return util.LogError("ошибка удаления refresh токена из Redis", err)
	}
	return nil
}

// SaveSession сохраняет запись сессии на время жизни входа
func (r *TokenRepository) SaveSession(ctx context.Context, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return util.LogError("ошибка сериализации сессии", err)
	}

	if err := r.client.Client.Set(ctx, r.sessionKey(session.UserUUID), data, ttl).Err(); err != nil {
		return util.LogError("ошибка сохранения сессии в Redis", err)
	}
	return nil
}

func (r *TokenRepository) GetSession(ctx context.Context, userUUID string) (*model.Session, error) {
	val, err := r.client.Client.Get(ctx, r.sessionKey(userUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // сессии нет
	} else if err != nil {
		return nil, util.LogError("ошибка чтения сессии из Redis", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, util.LogError("ошибка десериализации сессии", err)
	}
	return &session, nil
}

func (r *TokenRepository) DeleteSession(ctx context.Context, userUUID string) error {
	if err := r.client.Client.Del(ctx, r.sessionKey(userUUID)).Err(); err != nil {
		return util.LogError("ошибка удаления сессии из Redis", err)
	}
	return nil
}

func (r *TokenRepository) blacklistKey(token string) string {
	return fmt.Sprintf("blacklisted_token:%s", token)
}

func (r *TokenRepository) refreshKey(userUUID string) string {
	return fmt.Sprintf("refresh_token:%s", userUUID)
}

func (r *TokenRepository) sessionKey(userUUID string) string {
	return fmt.Sprintf("user_session:%s", userUUID)
}
