package handler

import (
	"net/http"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/andreypavlenko/crmcore/modules/persona/service"
	"github.com/gin-gonic/gin"
)

// KeywordHandler handles keyword CRUD, bulk insertion, and the
// diagnostic classify endpoint (spec §4.2, §6).
type KeywordHandler struct {
	classifier *service.ClassifierService
}

func NewKeywordHandler(classifier *service.ClassifierService) *KeywordHandler {
	return &KeywordHandler{classifier: classifier}
}

type createKeywordRequest struct {
	Keyword     string `json:"keyword"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
}

// Create godoc
// @Summary Create a keyword-to-persona mapping
// @Tags persona
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createKeywordRequest true "Keyword details"
// @Success 201 {object} model.Keyword
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 409 {object} httpPlatform.ErrorResponse "Keyword owned by a higher-or-equal priority persona"
// @Router /persona/keywords [post]
func (h *KeywordHandler) Create(c *gin.Context) {
	var req createKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	kw, _, err := h.classifier.CreateKeyword(c.Request.Context(), req.Keyword, req.PersonaID, req.PersonaName)
	if err != nil {
		code := model.GetErrorCode(err)
		status := http.StatusInternalServerError
		switch code {
		case model.CodeKeywordRequired:
			status = http.StatusBadRequest
		case model.CodeKeywordOwnedByHigherPriority:
			status = http.StatusConflict
		}
		httpPlatform.RespondWithError(c, status, string(code), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusCreated, kw)
}

type bulkCreateKeywordRequest struct {
	Text        string `json:"text"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
}

// BulkCreate godoc
// @Summary Bulk-insert keywords from delimited free text
// @Tags persona
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body bulkCreateKeywordRequest true "Delimited keyword text"
// @Success 200 {object} service.BulkCreateResult
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Router /persona/keywords/bulk [post]
func (h *KeywordHandler) BulkCreate(c *gin.Context) {
	var req bulkCreateKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	result, err := h.classifier.BulkCreateKeywords(c.Request.Context(), req.Text, req.PersonaID, req.PersonaName)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to bulk-create keywords")
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, result)
}

// List godoc
// @Summary List keywords, optionally filtered by persona
// @Tags persona
// @Security BearerAuth
// @Produce json
// @Param persona_id query string false "Persona ID filter"
// @Success 200 {array} model.Keyword
// @Router /persona/keywords [get]
func (h *KeywordHandler) List(c *gin.Context) {
	personaID := c.Query("persona_id")
	keywords, err := h.classifier.ListKeywords(c.Request.Context(), personaID)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list keywords")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, keywords)
}

// Delete godoc
// @Summary Delete a keyword
// @Tags persona
// @Security BearerAuth
// @Param id path string true "Keyword ID"
// @Success 204
// @Router /persona/keywords/{id} [delete]
func (h *KeywordHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.classifier.DeleteKeyword(c.Request.Context(), id); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete keyword")
		return
	}
	c.Status(http.StatusNoContent)
}

type classifyRequest struct {
	JobTitle string `json:"job_title"`
}

// Classify godoc
// @Summary Classify a job title against the keyword dictionary
// @Description Diagnostic endpoint exposing the classify() contract directly (spec §4.2)
// @Tags persona
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body classifyRequest true "Job title"
// @Success 200 {object} model.Classification
// @Router /persona/classify [post]
func (h *KeywordHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	result, err := h.classifier.Classify(c.Request.Context(), req.JobTitle)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to classify job title")
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, result)
}

// RegisterRoutes registers persona/keyword routes.
func (h *KeywordHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	persona := router.Group("/persona")
	persona.Use(authMiddleware)
	{
		persona.POST("/keywords", h.Create)
		persona.GET("/keywords", h.List)
		persona.DELETE("/keywords/:id", h.Delete)
		persona.POST("/keywords/bulk", h.BulkCreate)
		persona.POST("/classify", h.Classify)
	}
}
