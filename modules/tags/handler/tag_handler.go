package handler

import (
	"net/http"

	"github.com/andreypavlenko/crmcore/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/modules/tags/model"
	"github.com/andreypavlenko/crmcore/modules/tags/service"
	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	service *service.TagService
}

func NewTagHandler(service *service.TagService) *TagHandler {
	return &TagHandler{service: service}
}

// Create godoc
// @Summary Create a new tag
// @Tags tags
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body model.CreateTagRequest true "Tag details"
// @Success 201 {object} model.TagDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Router /tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	userID, ok := auth.MustGetUserID(c)
	if !ok {
		return
	}
	var req model.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	tag, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorCode := string(model.CodeInternalError)
		errorMessage := "Failed to create tag"

		if err == model.ErrTagNameRequired {
			statusCode = http.StatusBadRequest
			errorCode = string(model.CodeTagNameRequired)
			errorMessage = "Tag name is required"
		}

		httpPlatform.RespondWithError(c, statusCode, errorCode, errorMessage)
		return
	}
	httpPlatform.RespondWithData(c, http.StatusCreated, tag)
}

// List godoc
// @Summary List tags for the caller
// @Tags tags
// @Security BearerAuth
// @Produce json
// @Success 200 {object} []model.TagDTO
// @Router /tags [get]
func (h *TagHandler) List(c *gin.Context) {
	userID, ok := auth.MustGetUserID(c)
	if !ok {
		return
	}
	tags, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to list tags")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, tags)
}

// Delete godoc
// @Summary Delete a tag
// @Tags tags
// @Security BearerAuth
// @Produce json
// @Param id path string true "Tag ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpPlatform.ErrorResponse
// @Router /tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	userID, ok := auth.MustGetUserID(c)
	if !ok {
		return
	}
	tagID := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), userID, tagID); err != nil {
		statusCode := http.StatusInternalServerError
		errorCode := string(model.CodeInternalError)
		errorMessage := "Failed to delete tag"

		if err == model.ErrTagNotFound {
			statusCode = http.StatusNotFound
			errorCode = string(model.CodeTagNotFound)
			errorMessage = "Tag not found"
		}

		httpPlatform.RespondWithError(c, statusCode, errorCode, errorMessage)
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}

// AttachToContact godoc
// @Summary Attach a tag to a contact
// @Tags tags
// @Security BearerAuth
// @Produce json
// @Param id path string true "Contact ID"
// @Param tagId path string true "Tag ID"
// @Success 200 {object} map[string]string
// @Router /contacts/{id}/tags/{tagId} [post]
func (h *TagHandler) AttachToContact(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	contactID := c.Param("id")
	tagID := c.Param("tagId")

	if err := h.service.TagContact(c.Request.Context(), tagID, contactID); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to tag contact")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Contact tagged successfully"})
}

// DetachFromContact godoc
// @Summary Remove a tag from a contact
// @Tags tags
// @Security BearerAuth
// @Produce json
// @Param id path string true "Contact ID"
// @Param tagId path string true "Tag ID"
// @Success 200 {object} map[string]string
// @Router /contacts/{id}/tags/{tagId} [delete]
func (h *TagHandler) DetachFromContact(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	contactID := c.Param("id")
	tagID := c.Param("tagId")

	if err := h.service.UntagContact(c.Request.Context(), tagID, contactID); err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to untag contact")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, gin.H{"message": "Contact untagged successfully"})
}

// ListForContact godoc
// @Summary List tags attached to a contact
// @Tags tags
// @Security BearerAuth
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} []model.TagDTO
// @Router /contacts/{id}/tags [get]
func (h *TagHandler) ListForContact(c *gin.Context) {
	if _, ok := auth.MustGetUserID(c); !ok {
		return
	}
	contactID := c.Param("id")

	tags, err := h.service.ListForContact(c.Request.Context(), contactID)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(model.CodeInternalError), "Failed to list contact tags")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, tags)
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	tags := router.Group("/tags")
	tags.Use(authMiddleware)
	{
		tags.POST("", h.Create)
		tags.GET("", h.List)
		tags.DELETE("/:id", h.Delete)
	}

	contacts := router.Group("/contacts")
	contacts.Use(authMiddleware)
	{
		contacts.GET("/:id/tags", h.ListForContact)
		contacts.POST("/:id/tags/:tagId", h.AttachToContact)
		contacts.DELETE("/:id/tags/:tagId", h.DetachFromContact)
	}
}
