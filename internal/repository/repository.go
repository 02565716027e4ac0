package repository

import (
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
)

// TaskFilter holds filtering options for listing tasks. Visibility scoping is
// expressed through AllAreas / AreaIDs / OwnUserID: when AllAreas is false and
// AreaIDs is empty the result is always empty.
type TaskFilter struct {
	AllAreas bool
	AreaIDs  []uint64
	// OwnUserID restricts results to tasks the user created or is assigned to.
	OwnUserID *uint64

	Status         *models.TaskStatus
	CreatorID      *uint64
	AssignedUserID *uint64
	ProcessID      *uint64
	ParentID       *uint64
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists every field of the task
	Update(task *models.Task) error

	// ListChildren returns the direct children of a task
	ListChildren(parentID uint64) ([]models.Task, error)

	// AssignUsers replaces the task's assignee set; an empty list clears it
	AssignUsers(taskID uint64, userIDs []uint64) error

	// ReplaceTags replaces the task's tag set
	ReplaceTags(task *models.Task, tags []models.Tag) error

	// CountOpenByProcess counts member tasks that still block process
	// completion (Pending, Scheduled, In Progress or In Review)
	CountOpenByProcess(processID uint64) (int64, error)

	// ListByProcess returns every member task of a process
	ListByProcess(processID uint64) ([]models.Task, error)

	// PromoteScheduled flips Scheduled tasks whose planned start date has
	// arrived to Pending, returning how many were promoted
	PromoteScheduled(today time.Time) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	List(allAreas bool, areaIDs []uint64) ([]models.User, error)

	// CountMembersByIDs counts how many of the given users belong to the area
	CountMembersByIDs(userIDs []uint64, areaID uint64) (int64, error)

	// ReplaceAreas replaces the user's area memberships
	ReplaceAreas(user *models.User, areas []models.Area) error
}

// AreaRepository defines the interface for area data access
type AreaRepository interface {
	Create(area *models.Area) error
	FindByID(id uint64) (*models.Area, error)
	List() ([]models.Area, error)
}

// TagRepository defines the interface for tag data access
type TagRepository interface {
	Create(tag *models.Tag) error
	FindByIDs(ids []uint64) ([]models.Tag, error)
	List(allAreas bool, areaIDs []uint64) ([]models.Tag, error)
}

// TemplateRepository defines the interface for task template data access
type TemplateRepository interface {
	Create(template *models.TaskTemplate) error

	// FindByID loads a template with its tags and subtask tree
	FindByID(id uint64) (*models.TaskTemplate, error)
	List(allAreas bool, areaIDs []uint64) ([]models.TaskTemplate, error)
}

// ProcessFilter holds filtering options for listing processes.
type ProcessFilter struct {
	AllAreas bool
	// AreaIDs matches the owning area or any involved (transfer history) area.
	AreaIDs  []uint64
	Status   *models.ProcessStatus
	Page     int
	PageSize int
}

// ProcessRepository defines the interface for process data access
type ProcessRepository interface {
	Create(process *models.Process) error
	FindByID(id uint64, preload ...string) (*models.Process, error)
	List(filter ProcessFilter) ([]models.Process, int64, error)
	Update(process *models.Process) error

	// AddInvolvedArea records an area in the process's involvement set
	AddInvolvedArea(processID, areaID uint64) error

	CreateTransfer(transfer *models.ProcessTransfer) error
	ListTransfers(processID uint64) ([]models.ProcessTransfer, error)

	CreateType(pt *models.ProcessType) error
	FindTypeByID(id uint64) (*models.ProcessType, error)
	ListTypes(allAreas bool, areaIDs []uint64) ([]models.ProcessType, error)
}

// RecurringTaskRepository defines the interface for recurring task rules
type RecurringTaskRepository interface {
	Create(rt *models.RecurringTask) error
	FindByID(id uint64) (*models.RecurringTask, error)
	List() ([]models.RecurringTask, error)
	ListActive() ([]models.RecurringTask, error)
	Update(rt *models.RecurringTask) error

	// ClaimGeneration stamps last_generated_date = day if and only if the rule
	// has not already been claimed for that day, reporting whether this caller
	// won the claim. This is the at-most-once-per-day guard.
	ClaimGeneration(id uint64, day time.Time) (bool, error)
}

// ActivityFilter scopes activity log listings.
type ActivityFilter struct {
	AllAreas bool
	AreaIDs  []uint64
	UserID   *uint64
	Action   *string
	Page     int
	PageSize int
}

// AuditRepository defines the interface for append-only audit data
type AuditRepository interface {
	CreateTransition(t *models.StatusTransition) error
	ListTransitions(taskID uint64) ([]models.StatusTransition, error)

	CreateActivity(entry *models.ActivityLog) error
	ListActivity(filter ActivityFilter) ([]models.ActivityLog, int64, error)
}
