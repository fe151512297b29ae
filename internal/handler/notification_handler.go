package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/middleware"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// NotificationHandler serves a candidate's in-app notifications.
type NotificationHandler struct {
	notificationService *service.NotificationService
	log                 zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		log:                 log.With().Str("component", "notification_handler").Logger(),
	}
}

// ListNotifications godoc
// GET /api/v1/candidate/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := pageQuery(c)

	items, pagination, err := h.notificationService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"notifications": items}, pagination)
}

// MarkRead godoc
// POST /api/v1/candidate/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), claims.UserID, id); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"read": true})
}
