package ratelimit

import (
	"context"
	"sync"
	"time"

	"dependency-manager/config"
	"dependency-manager/internal/util"
)

// Store : счетчик запросов в скользящем окне.
// Первый хит в окне устанавливает TTL, последующие только инкрементируют
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (totalHits int64, err error)
}

// RedisStore : разделяемый между инстансами счетчик на Redis
type RedisStore struct {
	client *config.RedisClient
}

func NewRedisStore(rdb *config.RedisClient) *RedisStore {
	return &RedisStore{rdb}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	hits, err := s.client.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, util.LogError("ошибка инкремента счетчика в Redis", err)
	}

	if hits == 1 {
		if err := s.client.Client.Expire(ctx, key, window).Err(); err != nil {
			return 0, util.LogError("ошибка установки TTL счетчика", err)
		}
	}

	return hits, nil
}

// Reset сбрасывает счетчик (например, после успешного входа)
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Client.Del(ctx, key).Err(); err != nil {
		return util.LogError("ошибка сброса счетчика в Redis", err)
	}
	return nil
}

type memoryEntry struct {
	hits      int64
	expiresAt time.Time
}

// MemoryStore : локальный счетчик на случай недоступности Redis.
// Лимитирует только в пределах одного процесса — деградация, не замена
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		s.entries[key] = &memoryEntry{hits: 1, expiresAt: now.Add(window)}
		return 1, nil
	}

	entry.hits++
	return entry.hits, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
