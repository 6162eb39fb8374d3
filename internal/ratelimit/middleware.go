package ratelimit

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/security"
	"dependency-manager/internal/util"
)

// Limiter : лимитер одной категории запросов.
// Основной счетчик в Redis; при его недоступности запрос не блокируется,
// а проверяется локальным счетчиком процесса
type Limiter struct {
	purpose  string
	max      int64
	window   time.Duration
	store    Store
	fallback *MemoryStore
	message  string
}

func NewLimiter(purpose string, max int, window time.Duration, store Store, message string) *Limiter {
	return &Limiter{
		purpose:  purpose,
		max:      int64(max),
		window:   window,
		store:    store,
		fallback: NewMemoryStore(),
		message:  message,
	}
}

// Middleware отклоняет запрос с RATE_LIMIT_EXCEEDED при превышении лимита
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.key(r)

		hits, err := l.store.Increment(r.Context(), key, l.window)
		if err != nil {
			// Redis недоступен: деградируем до локального счетчика,
			// но не роняем конвейер запросов
			log.Printf("лимитер %s: переход на локальный счетчик: %v", l.purpose, err)
			hits, _ = l.fallback.Increment(r.Context(), key, l.window)
		}

		if hits > l.max {
			log.Printf("лимит %s превышен: key=%s hits=%d", l.purpose, key, hits)
			util.SendAppError(w, apperror.RateLimited(l.message))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClearForIP сбрасывает счетчик анонимных запросов с данного IP.
// Вызывается после успешного входа, чтобы не штрафовать легитимного пользователя
func (l *Limiter) ClearForIP(ctx context.Context, ip string) {
	key := fmt.Sprintf("rate_limit:%s:anonymous:%s", l.purpose, ip)
	if resettable, ok := l.store.(interface {
		Reset(ctx context.Context, key string) error
	}); ok {
		if err := resettable.Reset(ctx, key); err != nil {
			log.Printf("не удалось сбросить счетчик %s: %v", key, err)
		}
	}
	_ = l.fallback.Reset(ctx, key)
}

func (l *Limiter) key(r *http.Request) string {
	userUUID := "anonymous"
	if claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims); ok && claims != nil {
		userUUID = claims.UserUUID
	}
	return fmt.Sprintf("rate_limit:%s:%s:%s", l.purpose, userUUID, ClientIP(r))
}

// ClientIP достает адрес клиента без порта
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
