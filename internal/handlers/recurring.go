package handlers

import (
	"errors"
	"net/http"
	"time"

	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RecurringHandler coordinates recurring task rule administration. Every
// route is admin only.
type RecurringHandler struct {
	recurrenceService *services.RecurrenceService
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurrenceService *services.RecurrenceService) *RecurringHandler {
	return &RecurringHandler{
		recurrenceService: recurrenceService,
	}
}

// ListRules returns every recurring task rule.
func (h *RecurringHandler) ListRules(c *gin.Context) {
	rules, err := h.recurrenceService.ListRules()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch recurring tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recurring_tasks": rules})
}

// CreateRule creates a recurring task rule.
func (h *RecurringHandler) CreateRule(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateRuleRequest struct {
		Title          string                `json:"title" binding:"required,max=200"`
		Description    string                `json:"description"`
		Priority       models.TaskPriority   `json:"priority"`
		AreaID         *uint64               `json:"area_id"`
		RecurrenceType models.RecurrenceType `json:"recurrence_type" binding:"required"`
		DaysOfWeek     []int                 `json:"days_of_week"`
		DayOfMonth     *int                  `json:"day_of_month"`
		CustomDates    []string              `json:"custom_dates"`
		DueTime        string                `json:"due_time"`
		StartDate      time.Time             `json:"start_date" binding:"required"`
		EndDate        *time.Time            `json:"end_date"`
		TimeSpent      *int                  `json:"time_spent"`
		TemplateID     *uint64               `json:"template_id"`
		AssigneeIDs    []uint64              `json:"assignee_ids"`
		TagIDs         []uint64              `json:"tag_ids"`
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	rule, err := h.recurrenceService.CreateRule(services.CreateRuleInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		AreaID:         req.AreaID,
		RecurrenceType: req.RecurrenceType,
		DaysOfWeek:     req.DaysOfWeek,
		DayOfMonth:     req.DayOfMonth,
		CustomDates:    req.CustomDates,
		DueTime:        req.DueTime,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TimeSpent:      req.TimeSpent,
		TemplateID:     req.TemplateID,
		AssigneeIDs:    req.AssigneeIDs,
		TagIDs:         req.TagIDs,
		Actor:          actor,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired),
			errors.Is(err, services.ErrInvalidRecurrence),
			errors.Is(err, services.ErrRecurrenceMissing):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to create recurring task")
		}
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// ToggleRule activates or deactivates a rule.
func (h *RecurringHandler) ToggleRule(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid recurring task ID")
		return
	}

	type ToggleRequest struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	rule, err := h.recurrenceService.ToggleRule(id, *req.IsActive, actor)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to update recurring task")
		return
	}

	c.JSON(http.StatusOK, rule)
}

// RunScheduler triggers one materialization and promotion pass immediately.
func (h *RecurringHandler) RunScheduler(c *gin.Context) {
	now := time.Now()
	generated, err := h.recurrenceService.GenerateDailyTasks(now)
	if err != nil {
		apierrors.InternalError(c, "Scheduler run failed")
		return
	}
	promoted, err := h.recurrenceService.PromoteScheduledTasks(now)
	if err != nil {
		apierrors.InternalError(c, "Scheduler run failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generated": generated,
		"promoted":  promoted,
	})
}
