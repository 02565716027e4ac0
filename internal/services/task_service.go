package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleEmpty        = errors.New("title cannot be empty")
	ErrDueDateRequired   = errors.New("due date is required")
	ErrCannotCreateTasks = errors.New("user role cannot create tasks")
	ErrAreaRequired      = errors.New("area is required")
	ErrAreaNotAllowed    = errors.New("user does not belong to the target area")
	ErrInvalidAssignee   = errors.New("one or more assignees do not belong to the area")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrTaskNotVisible    = errors.New("task not found")
	ErrEditPermission    = errors.New("user cannot edit this task")
)

// TaskService handles task CRUD and listing under the visibility policy.
// Status transitions live in StatusService.
type TaskService struct {
	db       *gorm.DB
	activity ActivityRecorder
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(db *gorm.DB, activity ActivityRecorder) *TaskService {
	if activity == nil {
		activity = NopRecorder{}
	}
	return &TaskService{
		db:       db,
		activity: activity,
		now:      time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Actor          *models.User
	AreaID         *uint64
	Status         *models.TaskStatus
	AssignedUserID *uint64
	ProcessID      *uint64
	DueFrom        *time.Time
	DueTo          *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// ListTasks returns tasks visible to the actor under the three-tier policy.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	scope := ResolveScope(input.Actor, input.AreaID)

	filter := repository.TaskFilter{
		AllAreas:       scope.All,
		AreaIDs:        scope.AreaIDs,
		Status:         input.Status,
		AssignedUserID: input.AssignedUserID,
		ProcessID:      input.ProcessID,
		DueDateFrom:    input.DueFrom,
		DueDateTo:      input.DueTo,
		SortByDueDate:  input.SortByDueDate,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}
	if scope.OwnOnly {
		filter.OwnUserID = &scope.UserID
	}

	tasks, total, err := repository.NewTaskRepository(s.db).List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task with its relations if the actor may see it.
func (s *TaskService) GetTask(taskID uint64, actor *models.User) (*models.Task, error) {
	task, err := repository.NewTaskRepository(s.db).FindByID(taskID,
		"Creator", "Area", "Assignees", "Tags", "Parent", "Children", "Process")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canSeeTask(actor, task) {
		// Not-found instead of forbidden, to avoid leaking task existence
		return nil, ErrTaskNotVisible
	}
	return task, nil
}

// GetHistory returns a task's append-only status transition history.
func (s *TaskService) GetHistory(taskID uint64, actor *models.User) ([]models.StatusTransition, error) {
	if _, err := s.GetTask(taskID, actor); err != nil {
		return nil, err
	}
	return repository.NewAuditRepository(s.db).ListTransitions(taskID)
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title            string
	Description      string
	Priority         models.TaskPriority
	DueDate          time.Time
	PlannedStartDate *time.Time
	AreaID           *uint64
	ProcessID        *uint64
	ParentID         *uint64
	TemplateID       *uint64
	AssigneeIDs      []uint64
	TagIDs           []uint64
	Actor            *models.User
}

// CreateTask creates a task (optionally from a template, which also
// instantiates the template's subtask tree). A planned start date in the
// future puts the task in Scheduled until the daily job promotes it.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if !input.Actor.CanCreateTasks() {
		return nil, ErrCannotCreateTasks
	}

	var template *models.TaskTemplate
	if input.TemplateID != nil {
		var err error
		template, err = repository.NewTemplateRepository(s.db).FindByID(*input.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, fmt.Errorf("failed to find template: %w", err)
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" && template != nil {
		title = template.Title
	}
	if title == "" {
		return nil, ErrTitleRequired
	}

	areaID := input.AreaID
	if areaID == nil && template != nil {
		areaID = template.AreaID
	}
	if areaID == nil {
		return nil, ErrAreaRequired
	}
	if !input.Actor.CanSeeAllAreas() && !input.Actor.BelongsToArea(*areaID) {
		return nil, ErrAreaNotAllowed
	}

	now := s.now()
	dueDate := input.DueDate
	if dueDate.IsZero() {
		if template == nil {
			return nil, ErrDueDateRequired
		}
		dueDate = now.AddDate(0, 0, template.DefaultDays)
	}

	priority := input.Priority
	if priority == "" {
		if template != nil {
			priority = template.Priority
		} else {
			priority = models.PriorityNormal
		}
	}

	description := input.Description
	if description == "" && template != nil {
		description = template.Description
	}

	status := models.TaskStatusPending
	if input.PlannedStartDate != nil && input.PlannedStartDate.After(now) {
		status = models.TaskStatusScheduled
	}

	var assignees []models.User
	if len(input.AssigneeIDs) > 0 {
		userRepo := repository.NewUserRepository(s.db)
		ids := uniqueUint64(input.AssigneeIDs)
		count, err := userRepo.CountMembersByIDs(ids, *areaID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify assignees: %w", err)
		}
		if int(count) != len(ids) {
			return nil, ErrInvalidAssignee
		}
		for _, id := range ids {
			assignees = append(assignees, models.User{ID: id})
		}
	}

	var tags []models.Tag
	if len(input.TagIDs) > 0 {
		var err error
		tags, err = repository.NewTagRepository(s.db).FindByIDs(uniqueUint64(input.TagIDs))
		if err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
	} else if template != nil {
		tags = template.Tags
	}

	var task *models.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := repository.NewTaskRepository(tx)

		task = &models.Task{
			Title:            title,
			Description:      description,
			Priority:         priority,
			Status:           status,
			PlannedStartDate: input.PlannedStartDate,
			DueDate:          dueDate,
			CreatorID:        input.Actor.ID,
			AreaID:           areaID,
			ProcessID:        input.ProcessID,
			ParentID:         input.ParentID,
			// Children of an existing task start blocked
			Enabled:   input.ParentID == nil,
			Assignees: assignees,
			Tags:      tags,
		}
		if template != nil {
			task.TimeSpent = template.TimeSpent
		}
		if err := taskRepo.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if template != nil && len(template.Subtasks) > 0 {
			if err := createSubtaskTree(taskRepo, template.Subtasks, task, assignees); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(input.Actor.ID, "task_created",
		fmt.Sprintf("creó la tarea %q", task.Title),
		"task", &task.ID, task.AreaID, nil)

	return s.GetTask(task.ID, input.Actor)
}

// UpdateTaskInput represents input for editing a task's descriptive fields
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	DueDate     *time.Time
	TimeSpent   *int
	AssigneeIDs []uint64
	Actor       *models.User
}

// UpdateTask edits a task's descriptive fields. Status is out of scope here;
// use StatusService for transitions.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	taskRepo := repository.NewTaskRepository(s.db)

	task, err := taskRepo.FindByID(taskID, "Assignees")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canEditTask(input.Actor, task) {
		return nil, ErrEditPermission
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.TimeSpent != nil {
		task.TimeSpent = input.TimeSpent
	}

	now := s.now()
	task.LastEditedAt = &now
	task.LastEditedByID = &input.Actor.ID

	if err := taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.AssigneeIDs != nil {
		ids := uniqueUint64(input.AssigneeIDs)
		if task.AreaID != nil && len(ids) > 0 {
			count, err := repository.NewUserRepository(s.db).CountMembersByIDs(ids, *task.AreaID)
			if err != nil {
				return nil, fmt.Errorf("failed to verify assignees: %w", err)
			}
			if int(count) != len(ids) {
				return nil, ErrInvalidAssignee
			}
		}
		if err := taskRepo.AssignUsers(task.ID, ids); err != nil {
			return nil, fmt.Errorf("failed to assign users: %w", err)
		}
	}

	s.activity.Record(input.Actor.ID, "task_edited",
		fmt.Sprintf("editó la tarea %q", task.Title),
		"task", &task.ID, task.AreaID, nil)

	return s.GetTask(task.ID, input.Actor)
}

// canSeeTask applies the tier policy to a single loaded task.
func canSeeTask(user *models.User, task *models.Task) bool {
	if user.CanSeeAllAreas() {
		return true
	}
	if task.AreaID == nil || !user.BelongsToArea(*task.AreaID) {
		return false
	}
	if user.CanOnlySeeOwnTasks() {
		return task.CreatorID == user.ID || task.IsAssignee(user.ID)
	}
	return true
}

// canEditTask mirrors the original edit gate: admins always, supervisors in
// their areas, own-task roles only on their own tasks.
func canEditTask(user *models.User, task *models.Task) bool {
	if user.IsAdmin {
		return true
	}
	switch user.Role {
	case models.RoleSupervisor, models.RoleGerente:
		return task.AreaID != nil && (user.CanSeeAllAreas() || user.BelongsToArea(*task.AreaID))
	default:
		return task.CreatorID == user.ID || task.IsAssignee(user.ID)
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
