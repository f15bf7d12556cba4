package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/andreypavlenko/crmcore/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/andreypavlenko/crmcore/modules/imports/service"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	service *service.JobService
}

func NewJobHandler(service *service.JobService) *JobHandler {
	return &JobHandler{service: service}
}

// Upload godoc
// @Summary Upload a LinkedIn export CSV
// @Description Stores the file and creates an import job in status=uploaded
// @Tags imports
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param profile formData string true "Source profile identifier"
// @Param week_start formData string true "ISO date of the Monday this import belongs to"
// @Param file formData file true "LinkedIn export CSV"
// @Success 201 {object} service.UploadResult
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 409 {object} httpPlatform.ErrorResponse
// @Router /imports [post]
func (h *JobHandler) Upload(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}

	profile := c.PostForm("profile")
	weekStart := c.PostForm("week_start")
	if profile == "" || weekStart == "" {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "profile and week_start are required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to read uploaded file")
		return
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to read uploaded file")
		return
	}

	result, err := h.service.Upload(c.Request.Context(), profile, weekStart, body)
	if err != nil {
		if err == model.ErrProfileBusy {
			httpPlatform.RespondWithError(c, http.StatusConflict, string(model.CodeProfileBusy), "Profile already has a job in processing")
			return
		}
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to upload import file")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, result)
}

// Preview godoc
// @Summary Preview an import job's first rows
// @Tags imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} service.PreviewResult
// @Router /imports/{id}/preview [get]
func (h *JobHandler) Preview(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	result, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, result)
}

type startRequest struct {
	ColumnMapping map[string]string `json:"column_mapping" binding:"required"`
}

// Start godoc
// @Summary Queue an import job for processing
// @Tags imports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param request body startRequest true "Column mapping"
// @Success 200 {object} model.Job
// @Router /imports/{id}/start [post]
func (h *JobHandler) Start(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "column_mapping is required")
		return
	}
	job, err := h.service.Start(c.Request.Context(), c.Param("id"), req.ColumnMapping)
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"status": "queued", "job": job})
}

// Progress godoc
// @Summary Get an import job's live progress
// @Tags imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} model.Job
// @Router /imports/{id}/progress [get]
func (h *JobHandler) Progress(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	job, err := h.service.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, job)
}

// Cancel godoc
// @Summary Cooperatively cancel an import job
// @Tags imports
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 204
// @Router /imports/{id}/cancel [post]
func (h *JobHandler) Cancel(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.respondJobError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Conflicts godoc
// @Summary List conflict audit rows for an import job
// @Tags imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Param format query string false "csv to download as CSV"
// @Success 200 {array} contactmodel.ConflictRow
// @Router /imports/{id}/conflicts [get]
func (h *JobHandler) Conflicts(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	rows, err := h.service.Conflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	if c.Query("format") == "csv" {
		h.streamCSV(c, "conflicts.csv", []string{"row_number", "reason_code", "reason_detail"}, func(w *csv.Writer) error {
			for _, r := range rows {
				if err := w.Write([]string{strconv.Itoa(r.RowNumber), r.ReasonCode, r.ReasonDetail}); err != nil {
					return err
				}
			}
			return nil
		})
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, rows)
}

// InvalidRows godoc
// @Summary List invalid-row audit rows for an import job
// @Tags imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Param format query string false "csv to download as CSV"
// @Success 200 {array} contactmodel.InvalidRow
// @Router /imports/{id}/invalid_rows [get]
func (h *JobHandler) InvalidRows(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	rows, err := h.service.InvalidRows(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	if c.Query("format") == "csv" {
		h.streamCSV(c, "invalid_rows.csv", []string{"row_number", "reason_code", "reason_detail"}, func(w *csv.Writer) error {
			for _, r := range rows {
				if err := w.Write([]string{strconv.Itoa(r.RowNumber), r.ReasonCode, r.ReasonDetail}); err != nil {
					return err
				}
			}
			return nil
		})
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, rows)
}

// ParseFailures godoc
// @Summary List parse-failure audit rows for an import job
// @Tags imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Param format query string false "csv to download as CSV"
// @Success 200 {array} contactmodel.ParseFailure
// @Router /imports/{id}/parse_failures [get]
func (h *JobHandler) ParseFailures(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	rows, err := h.service.ParseFailures(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	if c.Query("format") == "csv" {
		h.streamCSV(c, "parse_failures.csv", []string{"row_number", "reason_code", "reason_detail"}, func(w *csv.Writer) error {
			for _, r := range rows {
				if err := w.Write([]string{strconv.Itoa(r.RowNumber), r.ReasonCode, r.ReasonDetail}); err != nil {
					return err
				}
			}
			return nil
		})
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, rows)
}

func (h *JobHandler) streamCSV(c *gin.Context, filename string, header []string, write func(*csv.Writer) error) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w := csv.NewWriter(c.Writer)
	_ = w.Write(header)
	if err := write(w); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to stream CSV")
		return
	}
	w.Flush()
}

func (h *JobHandler) respondJobError(c *gin.Context, err error) {
	switch err {
	case model.ErrJobNotFound:
		httpPlatform.RespondWithError(c, http.StatusNotFound, string(model.CodeJobNotFound), "Import job not found")
	case model.ErrJobNotCancellable:
		httpPlatform.RespondWithError(c, http.StatusConflict, string(model.CodeJobNotCancellable), "Job is not in a cancellable state")
	case model.ErrColumnMappingUnset:
		httpPlatform.RespondWithError(c, http.StatusBadRequest, string(model.CodeColumnMappingUnset), "Column mapping must be set before start")
	default:
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Import job operation failed")
	}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	imports := router.Group("/imports")
	imports.Use(authMiddleware)
	{
		imports.POST("", h.Upload)
		imports.GET("/:id/preview", h.Preview)
		imports.POST("/:id/start", h.Start)
		imports.GET("/:id/progress", h.Progress)
		imports.POST("/:id/cancel", h.Cancel)
		imports.GET("/:id/conflicts", h.Conflicts)
		imports.GET("/:id/invalid_rows", h.InvalidRows)
		imports.GET("/:id/parse_failures", h.ParseFailures)
	}
}
