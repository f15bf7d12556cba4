package handler

import (
	"net/http"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/scheduler/model"
	"github.com/andreypavlenko/crmcore/modules/scheduler/ports"
	"github.com/gin-gonic/gin"
)

// Handler exposes search_schedules CRUD. Dispatch itself is always
// driven by Driver's hourly cron tick, never by a request.
type Handler struct {
	repo ports.ScheduleRepository
}

func NewHandler(repo ports.ScheduleRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	schedules := router.Group("/search-schedules")
	schedules.Use(authMiddleware)
	{
		schedules.POST("", h.Create)
		schedules.GET("/:id", h.Get)
	}
}

type createScheduleRequest struct {
	ScheduleType  string            `json:"schedule_type" binding:"required"`
	EntityID      *string           `json:"entity_id"`
	EntityName    *string           `json:"entity_name"`
	Frequency     string            `json:"frequency" binding:"required"`
	FrequencyDays int               `json:"frequency_days"`
	Params        map[string]string `json:"params"`
}

// Create godoc
// @Summary Create a recurring search/scrape schedule
// @Tags search-schedules
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createScheduleRequest true "Schedule"
// @Success 201 {object} model.Schedule
// @Router /search-schedules [post]
func (h *Handler) Create(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	s := &model.Schedule{
		ScheduleType:  req.ScheduleType,
		EntityID:      req.EntityID,
		EntityName:    req.EntityName,
		Frequency:     req.Frequency,
		FrequencyDays: req.FrequencyDays,
		Params:        req.Params,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create schedule")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, s)
}

// Get godoc
// @Summary Fetch a search schedule by ID
// @Tags search-schedules
// @Security BearerAuth
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} model.Schedule
// @Router /search-schedules/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch schedule")
		return
	}
	if s == nil {
		httpPlatform.RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "Schedule not found")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, s)
}
