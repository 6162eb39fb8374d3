package handler

import (
	"net/http"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/ports"
	"dependency-manager/internal/security"
	"dependency-manager/internal/util"

	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	ports.NotificationService
}

func NewNotificationHandler(notificationService ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService}
}

// List godoc
// @Summary Уведомления пользователя
// @Description Возвращает последние уведомления и число непрочитанных
// @Tags Notifications
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.Envelope
// @Failure 401 {object} requestresponse.Envelope
// @Failure 500 {object} requestresponse.Envelope
// @Security ApiKeyAuth
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	notifications, unread, err := h.NotificationService.List(r.Context(), claims.UserUUID)
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	util.SendSuccess(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unreadCount":   unread,
	}, "Notifications retrieved successfully")
}

// MarkRead godoc
// @Summary Отметить уведомление прочитанным
// @Description Помечает уведомление текущего пользователя как прочитанное
// @Tags Notifications
// @Produce json
// @Param uuid path string true "UUID уведомления"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.Envelope
// @Failure 400 {object} requestresponse.Envelope
// @Failure 401 {object} requestresponse.Envelope
// @Failure 404 {object} requestresponse.Envelope "Уведомление не найдено"
// @Security ApiKeyAuth
// @Router /api/v1/notifications/{uuid}/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.SendAppError(w, err)
		return
	}

	notificationUUID := chi.URLParam(r, "uuid")
	if notificationUUID == "" {
		util.SendAppError(w, apperror.Validation("Notification UUID is required"))
		return
	}

	if err := h.NotificationService.MarkRead(r.Context(), notificationUUID, claims.UserUUID); err != nil {
		util.SendAppError(w, err)
		return
	}

	util.SendSuccess(w, http.StatusOK, nil, "Notification marked as read")
}
