package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/estudio-tools/workflow-api/internal/dto"
	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/estudio-tools/workflow-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService   *services.TaskService
	statusService *services.StatusService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, statusService *services.StatusService) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		statusService: statusService,
	}
}

// ListTasks returns the tasks visible to the current user, filtered and
// paginated.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Actor:         actor,
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          params.Page,
		PageSize:      params.Limit,
	}

	if v, ok := queryUint64(c, "area_id"); ok {
		input.AreaID = &v
	}
	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		if !models.IsValidStatus(status) {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		input.Status = &status
	}
	if v, ok := queryUint64(c, "assigned_to"); ok {
		input.AssignedUserID = &v
	}
	if v, ok := queryUint64(c, "process_id"); ok {
		input.ProcessID = &v
	}
	if t, ok := queryDate(c, "due_from"); ok {
		input.DueFrom = &t
	}
	if t, ok := queryDate(c, "due_to"); ok {
		input.DueTo = &t
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// CreateTask creates a new task, optionally from a template.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title            string              `json:"title"`
		Description      string              `json:"description"`
		Priority         models.TaskPriority `json:"priority"`
		DueDate          *time.Time          `json:"due_date"`
		PlannedStartDate *time.Time          `json:"planned_start_date"`
		AreaID           *uint64             `json:"area_id"`
		ProcessID        *uint64             `json:"process_id"`
		ParentID         *uint64             `json:"parent_id"`
		TemplateID       *uint64             `json:"template_id"`
		AssigneeIDs      []uint64            `json:"assignee_ids"`
		TagIDs           []uint64            `json:"tag_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		PlannedStartDate: req.PlannedStartDate,
		AreaID:           req.AreaID,
		ProcessID:        req.ProcessID,
		ParentID:         req.ParentID,
		TemplateID:       req.TemplateID,
		AssigneeIDs:      req.AssigneeIDs,
		TagIDs:           req.TagIDs,
		Actor:            actor,
	}
	if req.DueDate != nil {
		input.DueDate = *req.DueDate
	}

	task, err := h.taskService.CreateTask(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its relations.
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(id, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask edits a task's descriptive fields. Status changes go through
// ChangeStatus.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *time.Time           `json:"due_date"`
		TimeSpent   *int                 `json:"time_spent"`
		AssigneeIDs []uint64             `json:"assignee_ids"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(id, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		TimeSpent:   req.TimeSpent,
		AssigneeIDs: req.AssigneeIDs,
		Actor:       actor,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ChangeStatus applies a status transition and reports its side effects.
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid task ID"})
		return
	}

	type ChangeStatusRequest struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	result, err := h.statusService.ChangeStatus(services.ChangeStatusInput{
		TaskID:    id,
		NewStatus: models.TaskStatus(req.Status),
		Actor:     actor,
		Comment:   req.Comment,
	})
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrStatusPermission):
			status = http.StatusForbidden
		case errors.Is(err, services.ErrInvalidStatus),
			errors.Is(err, services.ErrInvalidTransition),
			errors.Is(err, services.ErrTaskBlocked):
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"task_id":           result.TaskID,
		"old_status":        result.OldStatus,
		"new_status":        result.NewStatus,
		"process_completed": result.ProcessCompleted,
	})
}

// GetHistory returns a task's status transition history.
func (h *TaskHandler) GetHistory(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	transitions, err := h.taskService.GetHistory(id, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transitions": transitions})
}

// ExportTasks streams the caller's visible tasks as an Excel workbook.
func (h *TaskHandler) ExportTasks(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		Actor:         actor,
		SortByDueDate: true,
		Page:          1,
		PageSize:      10000,
	}
	if v, ok := queryUint64(c, "area_id"); ok {
		input.AreaID = &v
	}
	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		if !models.IsValidStatus(status) {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		input.Status = &status
	}

	tasks, _, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	f, err := services.ExportTasks(tasks)
	if err != nil {
		apierrors.InternalError(c, "Failed to build export")
		return
	}

	filename := fmt.Sprintf("tareas_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		apierrors.InternalError(c, "Failed to write export")
		return
	}
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrTaskNotVisible),
		errors.Is(err, services.ErrTemplateNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCannotCreateTasks),
		errors.Is(err, services.ErrEditPermission):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrAreaRequired),
		errors.Is(err, services.ErrAreaNotAllowed),
		errors.Is(err, services.ErrInvalidAssignee):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func paramUint64(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryUint64(c *gin.Context, name string) (uint64, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryDate(c *gin.Context, name string) (time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
