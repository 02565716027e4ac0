package models

import "time"

// TaskTemplate is a reusable blueprint for creating tasks. DefaultDays is the
// offset, in days from the creation date, used for the new task's due date.
type TaskTemplate struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Name        string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'Normal'" json:"priority"`
	DefaultDays int          `gorm:"not null;default:0" json:"default_days"`
	TimeSpent   *int         `json:"time_spent"`
	AreaID      *uint64      `gorm:"index" json:"area_id"`
	CreatedByID uint64       `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time    `json:"created_at"`

	// Relations
	CreatedBy User              `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Area      *Area             `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Tags      []Tag             `gorm:"many2many:template_tags" json:"tags,omitempty"`
	Subtasks  []SubtaskTemplate `gorm:"foreignKey:TemplateID" json:"subtasks,omitempty"`
}

// SubtaskTemplate rows form a tree through ParentID, mirroring the Task
// hierarchy. DaysOffset positions the materialized subtask's due date relative
// to the root task's due date.
type SubtaskTemplate struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	TemplateID  uint64       `gorm:"not null;index" json:"template_id"`
	ParentID    *uint64      `gorm:"index" json:"parent_id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);default:'Normal'" json:"priority"`
	DaysOffset  int          `gorm:"default:0" json:"days_offset"`
	SortOrder   int          `gorm:"default:0" json:"sort_order"`
}
