package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusScheduled  TaskStatus = "Scheduled"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusInReview   TaskStatus = "In Review"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusAnulado    TaskStatus = "Anulado"
)

// ValidStatuses lists every accepted task status, in lifecycle order.
var ValidStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusScheduled,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusCompleted,
	TaskStatusAnulado,
}

// IsValidStatus reports whether s is one of the accepted task statuses.
func IsValidStatus(s TaskStatus) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s admits no further forward transitions.
// Completed tasks must be reopened through Pending; Anulado is final.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusAnulado
}

type TaskPriority string

const (
	PriorityNormal  TaskPriority = "Normal"
	PriorityMedia   TaskPriority = "Media"
	PriorityUrgente TaskPriority = "Urgente"
)

// Task is the central entity. Tasks form a tree through ParentID; a task
// created with a parent starts disabled and is unblocked when the parent
// completes. Anulado is a soft-delete marker, tasks are never hard-deleted.
type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'Normal'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`

	PlannedStartDate *time.Time `json:"planned_start_date"`
	DueDate          time.Time  `gorm:"not null;index" json:"due_date"`
	// OriginalDueDate keeps the pre-adjustment due date when enabling a child
	// whose deadline already passed while it was blocked.
	OriginalDueDate *time.Time `json:"original_due_date"`

	CreatedAt time.Time `json:"created_at"`
	CreatorID uint64    `gorm:"not null;index" json:"creator_id"`
	AreaID    *uint64   `gorm:"index" json:"area_id"`
	ProcessID *uint64   `gorm:"index" json:"process_id"`

	// Hierarchy / blocking. Enabled carries no column default: a false value
	// must survive the INSERT, and GORM drops zero-value fields that have a
	// default tag. Every creation path sets it explicitly.
	ParentID        *uint64    `gorm:"index" json:"parent_id"`
	Enabled         bool       `gorm:"not null" json:"enabled"`
	EnabledAt       *time.Time `json:"enabled_at"`
	EnabledByTaskID *uint64    `json:"enabled_by_task_id"`

	// Transition tracking
	StartedAt      *time.Time `json:"started_at"`
	StartedByID    *uint64    `json:"started_by_id"`
	InReviewAt     *time.Time `json:"in_review_at"`
	InReviewByID   *uint64    `json:"in_review_by_id"`
	CompletedAt    *time.Time `json:"completed_at"`
	CompletedByID  *uint64    `json:"completed_by_id"`
	ApprovedAt     *time.Time `json:"approved_at"`
	ApprovedByID   *uint64    `json:"approved_by_id"`
	LastEditedAt   *time.Time `json:"last_edited_at"`
	LastEditedByID *uint64    `json:"last_edited_by_id"`

	TimeSpent         *int    `json:"time_spent"`
	RecurringTaskID   *uint64 `gorm:"index" json:"recurring_task_id"`
	CompletionComment string  `gorm:"type:text" json:"completion_comment"`

	// Relations
	Creator   User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Area      *Area    `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Parent    *Task    `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children  []Task   `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Assignees []User   `gorm:"many2many:task_assignments" json:"assignees,omitempty"`
	Tags      []Tag    `gorm:"many2many:task_tags" json:"tags,omitempty"`
	Process   *Process `gorm:"foreignKey:ProcessID" json:"process,omitempty"`
}

// IsAssignee reports whether userID is among the task's assignees.
// Assignees must be preloaded.
func (t *Task) IsAssignee(userID uint64) bool {
	for _, u := range t.Assignees {
		if u.ID == userID {
			return true
		}
	}
	return false
}
