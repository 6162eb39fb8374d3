package ratelimit

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	delayResetAfter = time.Minute
	delayPruneAfter = time.Hour
	delayPruneSize  = 10000
)

type delayEntry struct {
	count       int
	lastRequest time.Time
}

// ProgressiveDelay вставляет экспоненциально растущую задержку перед обработкой
// повторных запросов с одного IP на один URL. Мягкая деградация до того,
// как сработает жесткий лимитер. Карта задержек локальна для процесса
type ProgressiveDelay struct {
	mu        sync.Mutex
	entries   map[string]*delayEntry
	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewProgressiveDelay(baseDelay, maxDelay time.Duration) *ProgressiveDelay {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &ProgressiveDelay{
		entries:   make(map[string]*delayEntry),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
	}
}

func (p *ProgressiveDelay) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%s:%s", ClientIP(r), r.URL.Path)
		delay := p.register(key, time.Now())

		if delay > 0 {
			log.Printf("прогрессивная задержка %v для %s", delay, key)
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// register учитывает запрос и возвращает задержку перед его обработкой.
// Счетчик сбрасывается после минуты без запросов
func (p *ProgressiveDelay) register(key string, now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[key]
	if !ok {
		p.entries[key] = &delayEntry{count: 1, lastRequest: now}
		p.pruneLocked(now)
		return 0
	}

	if now.Sub(entry.lastRequest) > delayResetAfter {
		entry.count = 1
	} else {
		entry.count++
	}
	entry.lastRequest = now

	p.pruneLocked(now)
	return p.delayFor(entry.count)
}

// delayFor : base * 2^(count-1), не больше maxDelay.
// Повторный запрос даже после сброса счетчика получает базовую задержку
func (p *ProgressiveDelay) delayFor(count int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < count; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			return p.maxDelay
		}
	}

	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// pruneLocked выбрасывает записи старше часа, когда карта разрослась
func (p *ProgressiveDelay) pruneLocked(now time.Time) {
	if len(p.entries) <= delayPruneSize {
		return
	}

	cutoff := now.Add(-delayPruneAfter)
	for key, entry := range p.entries {
		if entry.lastRequest.Before(cutoff) {
			delete(p.entries, key)
		}
	}
}
