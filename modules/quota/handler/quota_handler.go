package handler

import (
	"errors"
	"net/http"
	"time"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/quota/model"
	"github.com/andreypavlenko/crmcore/modules/quota/service"
	"github.com/gin-gonic/gin"
)

// Handler exposes the weekly-quota/position-search driver for manual
// triggering and alert management (spec §4.6).
type Handler struct {
	service *service.QuotaService
}

func NewHandler(service *service.QuotaService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	personas := router.Group("/personas/:personaId")
	personas.Use(authMiddleware)
	{
		personas.POST("/search-run", h.SearchRun)
		personas.GET("/keywords", h.ListKeywords)
		personas.POST("/keywords", h.CreateKeyword)
	}

	alerts := router.Group("/rate-limit-alerts")
	alerts.Use(authMiddleware)
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("/:id/resolve", h.ResolveAlert)
	}
}

// SearchRun godoc
// @Summary Run one position-search iteration for a persona
// @Tags quota
// @Security BearerAuth
// @Produce json
// @Param personaId path string true "Persona ID"
// @Success 200 {object} model.RunResult
// @Router /personas/{personaId}/search-run [post]
func (h *Handler) SearchRun(c *gin.Context) {
	personaID := c.Param("personaId")
	result, err := h.service.SearchRun(c.Request.Context(), personaID)
	switch {
	case errors.Is(err, model.ErrGoalMet), errors.Is(err, model.ErrRateLimited), errors.Is(err, model.ErrNoKeyword):
		httpPlatform.RespondWithError(c, http.StatusConflict, "QUOTA_BLOCKED", err.Error())
	case err != nil:
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to run search")
	default:
		httpPlatform.RespondWithData(c, http.StatusOK, result)
	}
}

type createKeywordRequest struct {
	Keyword string `json:"keyword" binding:"required"`
}

// CreateKeyword godoc
// @Summary Add a search keyword to a persona's rotation pool
// @Tags quota
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param personaId path string true "Persona ID"
// @Param request body createKeywordRequest true "Keyword"
// @Success 201 {object} map[string]string
// @Router /personas/{personaId}/keywords [post]
func (h *Handler) CreateKeyword(c *gin.Context) {
	var req createKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	personaID := c.Param("personaId")
	if err := h.service.CreateKeyword(c.Request.Context(), personaID, req.Keyword); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create keyword")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, gin.H{"message": "Keyword created"})
}

// ListKeywords godoc
// @Summary List a persona's search keywords
// @Tags quota
// @Security BearerAuth
// @Produce json
// @Param personaId path string true "Persona ID"
// @Success 200 {object} []model.SearchKeyword
// @Router /personas/{personaId}/keywords [get]
func (h *Handler) ListKeywords(c *gin.Context) {
	personaID := c.Param("personaId")
	keywords, err := h.service.ListKeywords(c.Request.Context(), personaID)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list keywords")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, keywords)
}

// ListAlerts godoc
// @Summary List this week's unresolved rate-limit alerts
// @Tags quota
// @Security BearerAuth
// @Produce json
// @Param week query string true "ISO week key, e.g. 2026-W31"
// @Success 200 {object} []model.RateLimitAlert
// @Router /rate-limit-alerts [get]
func (h *Handler) ListAlerts(c *gin.Context) {
	weekKey := c.Query("week")
	if weekKey == "" {
		weekKey = service.WeekKey(time.Now().UTC())
	}
	alerts, err := h.service.ListAlerts(c.Request.Context(), weekKey)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list alerts")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, alerts)
}

// ResolveAlert godoc
// @Summary Resolve a rate-limit alert, unblocking further search runs
// @Tags quota
// @Security BearerAuth
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} map[string]string
// @Router /rate-limit-alerts/{id}/resolve [post]
func (h *Handler) ResolveAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.ResolveAlert(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrAlertNotFound) {
			httpPlatform.RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "Alert not found")
			return
		}
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve alert")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Alert resolved"})
}
