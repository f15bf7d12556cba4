package handler

import (
	"net/http"
	"strconv"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/contacts/service"
	"github.com/gin-gonic/gin"
)

// ContactHandler handles contact HTTP requests. Grounded on
// modules/companies/handler/company_handler.go.
type ContactHandler struct {
	service *service.ContactService
}

func NewContactHandler(service *service.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Create godoc
// @Summary Create a new contact
// @Tags contacts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body model.CreateContactRequest true "Contact details"
// @Success 201 {object} model.ContactDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	var req model.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	contact, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeIdentifiersRequired {
			statusCode = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusCreated, contact)
}

// Get godoc
// @Summary Get a contact
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} model.ContactDTO
// @Failure 404 {object} httpPlatform.ErrorResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	contactID := c.Param("id")

	contact, err := h.service.GetByID(c.Request.Context(), contactID)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeContactNotFound {
			statusCode = http.StatusNotFound
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, contact)
}

// List godoc
// @Summary List contacts
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of items per page (default: 20, max: 100)"
// @Param offset query int false "Number of items to skip (default: 0)"
// @Param stage query int false "Filter by stage (1-5)"
// @Param persona query string false "Filter by persona id"
// @Param company_id query string false "Filter by primary company id"
// @Success 200 {object} httpPlatform.PaginatedResponse{items=[]model.ContactDTO}
// @Router /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	pagination, err := httpPlatform.ParsePaginationParams(c)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "INVALID_PAGINATION_PARAMS", "Invalid pagination parameters")
		return
	}

	opts := &ports.ListOptions{
		Limit:   pagination.Limit,
		Offset:  pagination.Offset,
		SortBy:  c.DefaultQuery("sort_by", "created_at"),
		SortDir: c.DefaultQuery("sort_dir", "desc"),
	}
	if stageStr := c.Query("stage"); stageStr != "" {
		if stage, err := strconv.Atoi(stageStr); err == nil {
			opts.Stage = &stage
		}
	}
	if persona := c.Query("persona"); persona != "" {
		opts.Persona = &persona
	}
	if companyID := c.Query("company_id"); companyID != "" {
		opts.CompanyID = &companyID
	}

	contacts, total, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list contacts")
		return
	}

	httpPlatform.RespondWithPagination(c, http.StatusOK, contacts, pagination.Limit, pagination.Offset, total)
}

// Update godoc
// @Summary Update a contact
// @Tags contacts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body model.UpdateContactRequest true "Updated contact details"
// @Success 200 {object} model.ContactDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 404 {object} httpPlatform.ErrorResponse
// @Router /contacts/{id} [patch]
func (h *ContactHandler) Update(c *gin.Context) {
	contactID := c.Param("id")

	var req model.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	contact, err := h.service.Update(c.Request.Context(), contactID, &req)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		switch errorCode {
		case model.CodeContactNotFound:
			statusCode = http.StatusNotFound
		case model.CodeInvalidStage:
			statusCode = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete a contact
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpPlatform.ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	contactID := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), contactID); err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeContactNotFound {
			statusCode = http.StatusNotFound
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Contact deleted successfully"})
}

// RegisterRoutes registers contact routes
func (h *ContactHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	contacts := router.Group("/contacts")
	contacts.Use(authMiddleware)
	{
		contacts.POST("", h.Create)
		contacts.GET("", h.List)
		contacts.GET("/:id", h.Get)
		contacts.PATCH("/:id", h.Update)
		contacts.DELETE("/:id", h.Delete)
	}
}
