package handler

import (
	"net/http"
	"strconv"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/notify/service"
	"github.com/gin-gonic/gin"
)

// NotifyHandler exposes the operational notification feed (spec §4.4
// schedule-failure sink) so an operator can see what the scheduler
// caught without reading logs.
type NotifyHandler struct {
	service *service.NotifyService
}

func NewNotifyHandler(service *service.NotifyService) *NotifyHandler {
	return &NotifyHandler{service: service}
}

func (h *NotifyHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	notifications := router.Group("/notifications")
	notifications.Use(authMiddleware)
	{
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

// List godoc
// @Summary List unread operational notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} []model.Notification
// @Router /notifications [get]
func (h *NotifyHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	notifications, err := h.service.ListUnread(c.Request.Context(), limit)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list notifications")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]string
// @Router /notifications/{id}/read [post]
func (h *NotifyHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to mark notification read")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Notification marked read"})
}
