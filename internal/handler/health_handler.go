package handler

import (
	"net/http"

	"dependency-manager/config"
	"dependency-manager/internal/util"
)

type HealthHandler struct {
	db    *config.Database
	redis *config.RedisClient
}

func NewHealthHandler(db *config.Database, redis *config.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health godoc
// @Summary Проверка живости сервиса
// @Tags Health
// @Produce json
// @Success 200 {object} requestresponse.Envelope
// @Failure 503 {object} requestresponse.Envelope
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"database": "up",
		"redis":    "up",
	}
	healthy := true

	if err := h.db.PingContext(r.Context()); err != nil {
		status["database"] = "down"
		healthy = false
	}
	if err := h.redis.Client.Ping(r.Context()).Err(); err != nil {
		status["redis"] = "down"
		healthy = false
	}

	if !healthy {
		util.SendError(w, http.StatusServiceUnavailable, "INTERNAL_SERVER_ERROR", "Service degraded", status)
		return
	}

	util.SendSuccess(w, http.StatusOK, status, "OK")
}
