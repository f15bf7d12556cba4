package handler

import (
	"net/http"
	"time"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/webinar/service"
	"github.com/gin-gonic/gin"
)

// Handler exposes manual webinar-event creation. Reminder
// materialization itself is scheduler-driven, not request-driven.
type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	events := router.Group("/webinar-events")
	events.Use(authMiddleware)
	{
		events.POST("", h.Create)
	}
}

type createEventRequest struct {
	Name     string    `json:"name" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
}

// Create godoc
// @Summary Schedule a webinar event
// @Tags webinar-events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createEventRequest true "Event"
// @Success 201 {object} model.Event
// @Router /webinar-events [post]
func (h *Handler) Create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	event, err := h.service.CreateEvent(c.Request.Context(), req.Name, req.StartsAt)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create webinar event")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, event)
}
