package models

import (
	"time"

	"gorm.io/datatypes"
)

type RecurrenceType string

const (
	// RecurrenceWeekdays generates Monday through Friday, skipping holidays.
	RecurrenceWeekdays RecurrenceType = "weekdays"
	// RecurrenceWeekly generates on configured ISO weekdays (1=Mon..7=Sun).
	RecurrenceWeekly RecurrenceType = "weekly"
	// RecurrenceMonthly generates on a configured day of the month.
	RecurrenceMonthly RecurrenceType = "monthly"
	// RecurrenceCustom generates on an explicit list of ISO dates.
	RecurrenceCustom RecurrenceType = "custom"
)

// RecurringTask is a rule consulted once per calendar day by the materializer
// to decide whether to instantiate a new Task. LastGeneratedDate guarantees
// at most one instantiation per day.
type RecurringTask struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'Normal'" json:"priority"`
	AreaID      *uint64      `gorm:"index" json:"area_id"`

	RecurrenceType RecurrenceType `gorm:"type:varchar(20);not null" json:"recurrence_type"`
	// DaysOfWeek holds ISO weekdays as CSV, e.g. "1,3,5" for Mon/Wed/Fri.
	DaysOfWeek string `gorm:"type:varchar(20)" json:"days_of_week"`
	DayOfMonth *int   `json:"day_of_month"`
	// CustomDates is a JSON array of ISO date strings.
	CustomDates datatypes.JSON `json:"custom_dates"`

	// DueTime is the wall-clock due time (HH:MM) for generated tasks.
	DueTime   string     `gorm:"type:varchar(5);not null" json:"due_time"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	TimeSpent  *int    `json:"time_spent"`
	IsActive   bool    `gorm:"default:true;index" json:"is_active"`
	TemplateID *uint64 `json:"template_id"`

	CreatorID         uint64     `gorm:"not null" json:"creator_id"`
	CreatedAt         time.Time  `json:"created_at"`
	LastGeneratedDate *time.Time `json:"last_generated_date"`

	// Relations
	Creator   User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Area      *Area         `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Template  *TaskTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Assignees []User        `gorm:"many2many:recurring_task_assignments" json:"assignees,omitempty"`
	Tags      []Tag         `gorm:"many2many:recurring_task_tags" json:"tags,omitempty"`
}
