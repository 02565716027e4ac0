package models

import "time"

type ProcessStatus string

const (
	ProcessStatusActive    ProcessStatus = "Active"
	ProcessStatusCompleted ProcessStatus = "Completed"
	ProcessStatusCancelled ProcessStatus = "Cancelled"
)

// ProcessType is a per-area catalog of process kinds, optionally linked to a
// task template used to seed new processes of that kind.
type ProcessType struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_process_type_name_area" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(7);not null;default:'#6366f1'" json:"color"`
	Icon        string    `gorm:"type:varchar(50);default:'fa-folder'" json:"icon"`
	AreaID      uint64    `gorm:"not null;uniqueIndex:uq_process_type_name_area" json:"area_id"`
	CreatedByID uint64    `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	TemplateID  *uint64   `json:"template_id"`

	// Relations
	Area     Area          `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Template *TaskTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// Process groups tasks under a named unit of work owned by one area at a time.
// Transferring it to another area records the prior area as involved, which
// grants that area's members read-only visibility from then on.
type Process struct {
	ID            uint64        `gorm:"primarykey" json:"id"`
	ProcessTypeID uint64        `gorm:"not null;index" json:"process_type_id"`
	Name          string        `gorm:"type:varchar(200);not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description"`
	Status        ProcessStatus `gorm:"type:varchar(20);not null;default:'Active';index" json:"status"`
	AreaID        uint64        `gorm:"not null;index" json:"area_id"`
	CreatedAt     time.Time     `json:"created_at"`
	StartedAt     *time.Time    `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at"`
	DueDate       time.Time     `gorm:"not null" json:"due_date"`
	CreatedByID   uint64        `gorm:"not null" json:"created_by_id"`
	CompletedByID *uint64       `json:"completed_by_id"`

	// Relations
	ProcessType   ProcessType `gorm:"foreignKey:ProcessTypeID" json:"process_type,omitempty"`
	Area          Area        `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	CreatedBy     User        `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Tasks         []Task      `gorm:"foreignKey:ProcessID" json:"tasks,omitempty"`
	InvolvedAreas []Area      `gorm:"many2many:process_involved_areas" json:"involved_areas,omitempty"`
}

// ProcessTransfer is an append-only audit row recording a process moving
// between areas.
type ProcessTransfer struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	ProcessID       uint64    `gorm:"not null;index" json:"process_id"`
	FromAreaID      uint64    `gorm:"not null" json:"from_area_id"`
	ToAreaID        uint64    `gorm:"not null" json:"to_area_id"`
	TransferredByID uint64    `gorm:"not null" json:"transferred_by_id"`
	TransferredAt   time.Time `json:"transferred_at"`
	Comment         string    `gorm:"type:text" json:"comment"`

	// Relations
	FromArea      Area `gorm:"foreignKey:FromAreaID" json:"from_area,omitempty"`
	ToArea        Area `gorm:"foreignKey:ToAreaID" json:"to_area,omitempty"`
	TransferredBy User `gorm:"foreignKey:TransferredByID" json:"transferred_by,omitempty"`
}
