package handlers

import (
	"net/http"
	"strings"

	"github.com/estudio-tools/workflow-api/internal/database"
	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogHandler serves the supporting catalogs: areas, tags, task templates
// and process types.
type CatalogHandler struct{}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// ListAreas returns every area. Areas are not visibility-scoped; users need
// them to read task and process metadata.
func (h *CatalogHandler) ListAreas(c *gin.Context) {
	areas, err := repository.NewAreaRepository(database.GetDB()).List()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch areas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

// CreateArea creates a new area. Admin only.
func (h *CatalogHandler) CreateArea(c *gin.Context) {
	type CreateAreaRequest struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}

	var req CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	area := models.Area{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if req.Color != "" {
		area.Color = req.Color
	}

	if err := repository.NewAreaRepository(database.GetDB()).Create(&area); err != nil {
		apierrors.Conflict(c, "Area already exists")
		return
	}

	c.JSON(http.StatusCreated, area)
}

// ListTags returns the tags visible under the caller's scope. Tags without an
// area are global.
func (h *CatalogHandler) ListTags(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	scope := services.ResolveScope(actor, nil)
	tags, err := repository.NewTagRepository(database.GetDB()).List(scope.All, scope.AreaIDs)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag creates a new tag, optionally scoped to an area.
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTagRequest struct {
		Name   string  `json:"name" binding:"required,max=50"`
		Color  string  `json:"color" binding:"required"`
		AreaID *uint64 `json:"area_id"`
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.AreaID != nil && !actor.CanSeeAllAreas() && !actor.BelongsToArea(*req.AreaID) {
		apierrors.Forbidden(c, "Cannot create a tag in an area you do not belong to")
		return
	}

	tag := models.Tag{
		Name:        strings.TrimSpace(req.Name),
		Color:       req.Color,
		AreaID:      req.AreaID,
		CreatedByID: actor.ID,
	}
	if err := repository.NewTagRepository(database.GetDB()).Create(&tag); err != nil {
		apierrors.Conflict(c, "Tag already exists")
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// ListTemplates returns the task templates visible under the caller's scope.
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	scope := services.ResolveScope(actor, nil)
	templates, err := repository.NewTemplateRepository(database.GetDB()).List(scope.All, scope.AreaIDs)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate returns a template with its tags and subtask tree.
func (h *CatalogHandler) GetTemplate(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid template ID")
		return
	}

	template, err := repository.NewTemplateRepository(database.GetDB()).FindByID(id)
	if err != nil {
		apierrors.NotFound(c, "Template not found")
		return
	}
	c.JSON(http.StatusOK, template)
}

// CreateTemplate creates a task template with an optional subtask tree.
// Admin only.
func (h *CatalogHandler) CreateTemplate(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SubtaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"`
		DaysOffset  int                 `json:"days_offset"`
		SortOrder   int                 `json:"sort_order"`
		ParentIndex *int                `json:"parent_index"`
	}
	type CreateTemplateRequest struct {
		Name        string              `json:"name" binding:"required,max=100"`
		Title       string              `json:"title" binding:"required,max=200"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"`
		DefaultDays int                 `json:"default_days"`
		TimeSpent   *int                `json:"time_spent"`
		AreaID      *uint64             `json:"area_id"`
		Subtasks    []SubtaskRequest    `json:"subtasks"`
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	for _, st := range req.Subtasks {
		if st.ParentIndex != nil && (*st.ParentIndex < 0 || *st.ParentIndex >= len(req.Subtasks)) {
			apierrors.BadRequest(c, "Subtask parent_index out of range")
			return
		}
	}

	template := models.TaskTemplate{
		Name:        strings.TrimSpace(req.Name),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DefaultDays: req.DefaultDays,
		TimeSpent:   req.TimeSpent,
		AreaID:      req.AreaID,
		CreatedByID: actor.ID,
	}
	if template.Priority == "" {
		template.Priority = models.PriorityNormal
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTemplateRepository(tx).Create(&template); err != nil {
			return err
		}
		// Two passes: create rows first, then link parents by request index.
		rows := make([]models.SubtaskTemplate, len(req.Subtasks))
		for i, st := range req.Subtasks {
			rows[i] = models.SubtaskTemplate{
				TemplateID:  template.ID,
				Title:       st.Title,
				Description: st.Description,
				Priority:    st.Priority,
				DaysOffset:  st.DaysOffset,
				SortOrder:   st.SortOrder,
			}
			if rows[i].Priority == "" {
				rows[i].Priority = models.PriorityNormal
			}
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		for i, st := range req.Subtasks {
			if st.ParentIndex == nil {
				continue
			}
			rows[i].ParentID = &rows[*st.ParentIndex].ID
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		apierrors.InternalError(c, "Failed to create template")
		return
	}

	created, err := repository.NewTemplateRepository(database.GetDB()).FindByID(template.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to reload template")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListProcessTypes returns the process types visible under the caller's scope.
func (h *CatalogHandler) ListProcessTypes(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	scope := services.ResolveScope(actor, nil)
	types, err := repository.NewProcessRepository(database.GetDB()).ListTypes(scope.All, scope.AreaIDs)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch process types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"process_types": types})
}

// CreateProcessType creates a process type in an area. Admin only.
func (h *CatalogHandler) CreateProcessType(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProcessTypeRequest struct {
		Name        string  `json:"name" binding:"required,max=100"`
		Description string  `json:"description"`
		Color       string  `json:"color"`
		Icon        string  `json:"icon"`
		AreaID      uint64  `json:"area_id" binding:"required"`
		TemplateID  *uint64 `json:"template_id"`
	}

	var req CreateProcessTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	pt := models.ProcessType{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		AreaID:      req.AreaID,
		TemplateID:  req.TemplateID,
		CreatedByID: actor.ID,
		IsActive:    true,
	}
	if req.Color != "" {
		pt.Color = req.Color
	}
	if req.Icon != "" {
		pt.Icon = req.Icon
	}

	if err := repository.NewProcessRepository(database.GetDB()).CreateType(&pt); err != nil {
		apierrors.Conflict(c, "Process type already exists in this area")
		return
	}

	c.JSON(http.StatusCreated, pt)
}
