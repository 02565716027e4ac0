package models

import "time"

// StatusTransition is an immutable audit row appended on every task status
// change. Rows are never updated or deleted.
type StatusTransition struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	TaskID      uint64     `gorm:"not null;index" json:"task_id"`
	FromStatus  TaskStatus `gorm:"type:varchar(50);not null" json:"from_status"`
	ToStatus    TaskStatus `gorm:"type:varchar(50);not null" json:"to_status"`
	ChangedByID uint64     `gorm:"not null" json:"changed_by_id"`
	Comment     string     `gorm:"type:text" json:"comment"`
	ChangedAt   time.Time  `json:"changed_at"`

	// Relations
	ChangedBy User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}
