package dto

import (
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64      `json:"id"`
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
	IsAdmin  bool        `json:"is_admin"`
	Areas    []AreaDTO   `json:"areas,omitempty"`
}

// AreaDTO represents an area in API responses
type AreaDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagDTO represents a tag in API responses
type TagDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                uint64              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Priority          models.TaskPriority `json:"priority"`
	Status            models.TaskStatus   `json:"status"`
	DueDate           time.Time           `json:"due_date"`
	PlannedStartDate  *time.Time          `json:"planned_start_date"`
	OriginalDueDate   *time.Time          `json:"original_due_date"`
	CreatorID         uint64              `json:"creator_id"`
	AreaID            *uint64             `json:"area_id"`
	ProcessID         *uint64             `json:"process_id"`
	ParentID          *uint64             `json:"parent_id"`
	Enabled           bool                `json:"enabled"`
	EnabledAt         *time.Time          `json:"enabled_at"`
	StartedAt         *time.Time          `json:"started_at"`
	StartedByID       *uint64             `json:"started_by_id"`
	InReviewAt        *time.Time          `json:"in_review_at"`
	InReviewByID      *uint64             `json:"in_review_by_id"`
	CompletedAt       *time.Time          `json:"completed_at"`
	CompletedByID     *uint64             `json:"completed_by_id"`
	ApprovedAt        *time.Time          `json:"approved_at"`
	ApprovedByID      *uint64             `json:"approved_by_id"`
	TimeSpent         *int                `json:"time_spent"`
	CompletionComment string              `json:"completion_comment,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	Creator           *UserDTO            `json:"creator,omitempty"`
	Area              *AreaDTO            `json:"area,omitempty"`
	Assignees         []UserDTO           `json:"assignees,omitempty"`
	Tags              []TagDTO            `json:"tags,omitempty"`
	Children          []TaskListItemDTO   `json:"children,omitempty"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID        uint64              `json:"id"`
	Title     string              `json:"title"`
	Priority  models.TaskPriority `json:"priority"`
	Status    models.TaskStatus   `json:"status"`
	DueDate   time.Time           `json:"due_date"`
	AreaID    *uint64             `json:"area_id"`
	ProcessID *uint64             `json:"process_id"`
	ParentID  *uint64             `json:"parent_id"`
	Enabled   bool                `json:"enabled"`
	Creator   *UserDTO            `json:"creator,omitempty"`
	Area      *AreaDTO            `json:"area,omitempty"`
	Assignees []UserDTO           `json:"assignees,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO `json:"tasks"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	d := UserDTO{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
		IsAdmin:  user.IsAdmin,
	}
	for _, a := range user.Areas {
		d.Areas = append(d.Areas, ToAreaDTO(a))
	}
	return d
}

// ToAreaDTO converts an Area model to AreaDTO
func ToAreaDTO(area models.Area) AreaDTO {
	return AreaDTO{ID: area.ID, Name: area.Name, Color: area.Color}
}

// ToTagDTO converts a Tag model to TagDTO
func ToTagDTO(tag models.Tag) TagDTO {
	return TagDTO{ID: tag.ID, Name: tag.Name, Color: tag.Color}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	d := TaskDTO{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		Priority:          task.Priority,
		Status:            task.Status,
		DueDate:           task.DueDate,
		PlannedStartDate:  task.PlannedStartDate,
		OriginalDueDate:   task.OriginalDueDate,
		CreatorID:         task.CreatorID,
		AreaID:            task.AreaID,
		ProcessID:         task.ProcessID,
		ParentID:          task.ParentID,
		Enabled:           task.Enabled,
		EnabledAt:         task.EnabledAt,
		StartedAt:         task.StartedAt,
		StartedByID:       task.StartedByID,
		InReviewAt:        task.InReviewAt,
		InReviewByID:      task.InReviewByID,
		CompletedAt:       task.CompletedAt,
		CompletedByID:     task.CompletedByID,
		ApprovedAt:        task.ApprovedAt,
		ApprovedByID:      task.ApprovedByID,
		TimeSpent:         task.TimeSpent,
		CompletionComment: task.CompletionComment,
		CreatedAt:         task.CreatedAt,
	}

	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		creator.Areas = nil
		d.Creator = &creator
	}
	if task.Area != nil {
		area := ToAreaDTO(*task.Area)
		d.Area = &area
	}
	for _, u := range task.Assignees {
		assignee := ToUserDTO(u)
		assignee.Areas = nil
		d.Assignees = append(d.Assignees, assignee)
	}
	for _, t := range task.Tags {
		d.Tags = append(d.Tags, ToTagDTO(t))
	}
	for _, child := range task.Children {
		d.Children = append(d.Children, ToTaskListItemDTO(child))
	}

	return d
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	d := TaskListItemDTO{
		ID:        task.ID,
		Title:     task.Title,
		Priority:  task.Priority,
		Status:    task.Status,
		DueDate:   task.DueDate,
		AreaID:    task.AreaID,
		ProcessID: task.ProcessID,
		ParentID:  task.ParentID,
		Enabled:   task.Enabled,
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		creator.Areas = nil
		d.Creator = &creator
	}
	if task.Area != nil {
		area := ToAreaDTO(*task.Area)
		d.Area = &area
	}
	for _, u := range task.Assignees {
		assignee := ToUserDTO(u)
		assignee.Areas = nil
		d.Assignees = append(d.Assignees, assignee)
	}
	return d
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
