package handler

import (
	"net/http"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/companies/model"
	"github.com/andreypavlenko/crmcore/modules/companies/ports"
	"github.com/andreypavlenko/crmcore/modules/companies/service"
	"github.com/gin-gonic/gin"
)

// CompanyHandler handles company HTTP requests
type CompanyHandler struct {
	service *service.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(service *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// Create godoc
// @Summary Create a new company
// @Description Create a new company record
// @Tags companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body model.CreateCompanyRequest true "Company details"
// @Success 201 {object} model.CompanyDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req model.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	company, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeCompanyNameRequired || errorCode == model.CodeDuplicateNormalizedName {
			statusCode = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusCreated, company)
}

// Get godoc
// @Summary Get a company
// @Description Get details of a specific company by ID, including its contacts count
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} model.CompanyDTO
// @Failure 404 {object} httpPlatform.ErrorResponse "Company not found"
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID := c.Param("id")

	company, err := h.service.GetByID(c.Request.Context(), companyID)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeCompanyNotFound {
			statusCode = http.StatusNotFound
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, company)
}

// List godoc
// @Summary List companies
// @Description Get a paginated list of companies, including a contacts count per company
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of items per page (default: 20, max: 100)"
// @Param offset query int false "Number of items to skip (default: 0)"
// @Param sort_by query string false "Sort field: name, created_at (default: name)"
// @Param sort_dir query string false "Sort direction: asc, desc (default: asc)"
// @Success 200 {object} httpPlatform.PaginatedResponse{items=[]model.CompanyDTO}
// @Failure 400 {object} httpPlatform.ErrorResponse "Invalid pagination parameters"
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	pagination, err := httpPlatform.ParsePaginationParams(c)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "INVALID_PAGINATION_PARAMS", "Invalid pagination parameters")
		return
	}

	sortBy := c.DefaultQuery("sort_by", "name")
	sortDir := c.DefaultQuery("sort_dir", "asc")
	if sortBy != "name" && sortBy != "created_at" {
		sortBy = "name"
	}

	opts := &ports.ListOptions{
		Limit:   pagination.Limit,
		Offset:  pagination.Offset,
		SortBy:  sortBy,
		SortDir: sortDir,
	}

	companies, total, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list companies")
		return
	}

	httpPlatform.RespondWithPagination(c, http.StatusOK, companies, pagination.Limit, pagination.Offset, total)
}

// Update godoc
// @Summary Update a company
// @Description Update details of a specific company, including aliases/domains/is_active
// @Tags companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param request body model.UpdateCompanyRequest true "Updated company details"
// @Success 200 {object} model.CompanyDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 404 {object} httpPlatform.ErrorResponse "Company not found"
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /companies/{id} [patch]
func (h *CompanyHandler) Update(c *gin.Context) {
	companyID := c.Param("id")

	var req model.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	company, err := h.service.Update(c.Request.Context(), companyID, &req)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		switch errorCode {
		case model.CodeCompanyNotFound:
			statusCode = http.StatusNotFound
		case model.CodeCompanyNameRequired, model.CodeDuplicateNormalizedName:
			statusCode = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, company)
}

// Delete godoc
// @Summary Delete a company
// @Description Delete a specific company by ID
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpPlatform.ErrorResponse "Company not found"
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
	companyID := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), companyID); err != nil {
		errorCode := model.GetErrorCode(err)
		statusCode := http.StatusInternalServerError
		if errorCode == model.CodeCompanyNotFound {
			statusCode = http.StatusNotFound
		}
		httpPlatform.RespondWithError(c, statusCode, string(errorCode), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Company deleted successfully"})
}

// RegisterRoutes registers company routes
func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	companies := router.Group("/companies")
	companies.Use(authMiddleware)
	{
		companies.POST("", h.Create)
		companies.GET("", h.List)
		companies.GET("/:id", h.Get)
		companies.PATCH("/:id", h.Update)
		companies.DELETE("/:id", h.Delete)
	}
}
