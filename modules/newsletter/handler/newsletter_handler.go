package handler

import (
	"net/http"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/newsletter/service"
	"github.com/gin-gonic/gin"
)

// Handler exposes manual newsletter generation for operators who don't
// want to wait for Monday's scheduled run. Sending itself is always
// scheduler-driven.
type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	newsletters := router.Group("/newsletters")
	newsletters.Use(authMiddleware)
	{
		newsletters.POST("/generate", h.Generate)
	}
}

// Generate godoc
// @Summary Generate and schedule a newsletter immediately
// @Tags newsletters
// @Security BearerAuth
// @Produce json
// @Success 201 {object} model.Newsletter
// @Router /newsletters/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	n, err := h.service.GenerateWeekly(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate newsletter")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, n)
}
