package handler

import (
	"errors"
	"net/http"
	"time"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	"github.com/andreypavlenko/crmcore/modules/aggregator/service"
	"github.com/gin-gonic/gin"
)

// Handler exposes the traffic-light aggregator's computed sections and
// the "current cases" checklist workflow (spec §4.5), route naming
// grounded on test_delivery_ganados.py / test_case_level_roles.py.
type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	sections := router.Group("/aggregator/sections")
	sections.Use(authMiddleware)
	sections.GET("", h.Sections)

	cases := router.Group("/cases")
	cases.Use(authMiddleware)
	{
		cases.GET("/delivery/ganados", h.GanadosCases)
		cases.GET("/by-contact/:contactId", h.CasesByContact)
		cases.POST("/:id/checklist/columns", h.CreateChecklistColumn)
		cases.PATCH("/:id/checklist/cell", h.UpdateChecklistCell)
		cases.PATCH("/:id/status", h.UpdateStatus)
	}

	router.PUT("/todays-focus/case-roles", authMiddleware, h.SetCaseRoles)
}

// Sections godoc
// @Summary Compute the section-wide traffic-light tree
// @Tags aggregator
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]model.Node
// @Router /aggregator/sections [get]
func (h *Handler) Sections(c *gin.Context) {
	nodes, err := h.service.ComputeSections(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute sections")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, nodes)
}

// GanadosCases godoc
// @Summary List Stage-4 "ganados" cases with contacts, checklist and weekly status
// @Tags aggregator
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.CurrentCasesResult
// @Router /cases/delivery/ganados [get]
func (h *Handler) GanadosCases(c *gin.Context) {
	result, err := h.service.ComputeCurrentCases(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute current cases")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, result)
}

// CasesByContact godoc
// @Summary List cases a contact belongs to
// @Tags aggregator
// @Security BearerAuth
// @Produce json
// @Param contactId path string true "Contact ID"
// @Success 200 {object} []model.Case
// @Router /cases/by-contact/{contactId} [get]
func (h *Handler) CasesByContact(c *gin.Context) {
	cases, err := h.service.ListCasesByContact(c.Request.Context(), c.Param("contactId"))
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cases")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, cases)
}

type createColumnRequest struct {
	GroupID string    `json:"group_id" binding:"required"`
	Title   string    `json:"title" binding:"required"`
	DueDate time.Time `json:"due_date" binding:"required"`
}

// CreateChecklistColumn godoc
// @Summary Add a checklist column/task to a case's group
// @Tags aggregator
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body createColumnRequest true "Column"
// @Success 200 {object} map[string]string
// @Router /cases/{id}/checklist/columns [post]
func (h *Handler) CreateChecklistColumn(c *gin.Context) {
	var req createColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	columnID, err := h.service.AddChecklistColumn(c.Request.Context(), c.Param("id"), req.GroupID, req.Title, req.DueDate)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create checklist column")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"success": true, "column_id": columnID})
}

type updateCellRequest struct {
	GroupID   string `json:"group_id" binding:"required"`
	ContactID string `json:"contact_id" binding:"required"`
	ColumnID  string `json:"column_id" binding:"required"`
	Checked   *bool  `json:"checked" binding:"required"`
}

// UpdateChecklistCell godoc
// @Summary Check or uncheck one contact's cell against one column
// @Tags aggregator
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body updateCellRequest true "Cell"
// @Success 200 {object} map[string]string
// @Router /cases/{id}/checklist/cell [patch]
func (h *Handler) UpdateChecklistCell(c *gin.Context) {
	var req updateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	err := h.service.SetChecklistCell(c.Request.Context(), c.Param("id"), req.GroupID, req.ContactID, req.ColumnID, *req.Checked)
	switch {
	case errors.Is(err, model.ErrCaseNotFound):
		httpPlatform.RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
	case err != nil:
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update cell")
	default:
		httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"success": true})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Change a case's status (e.g. "active" -> "concluidos")
// @Tags aggregator
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body updateStatusRequest true "Status"
// @Success 200 {object} map[string]string
// @Router /cases/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	err := h.service.UpdateCaseStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, model.ErrInvalidStatus):
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, model.ErrCaseNotFound):
		httpPlatform.RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
	case err != nil:
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update status")
	default:
		httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"success": true, "message": "Case status updated to " + req.Status})
	}
}

type setCaseRolesRequest struct {
	CaseID    string   `json:"case_id" binding:"required"`
	ContactID string   `json:"contact_id" binding:"required"`
	Roles     []string `json:"roles"`
}

// SetCaseRoles godoc
// @Summary Replace a contact's role assignment within a case (empty roles clears it)
// @Tags aggregator
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body setCaseRolesRequest true "Roles"
// @Success 200 {object} map[string]string
// @Router /todays-focus/case-roles [put]
func (h *Handler) SetCaseRoles(c *gin.Context) {
	var req setCaseRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.SetContactRoles(c.Request.Context(), req.CaseID, req.ContactID, req.Roles); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set case roles")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"success": true})
}
