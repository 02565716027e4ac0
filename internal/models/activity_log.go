package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is the generic append-only audit trail. Admins see all entries,
// supervisors only those of their areas.
type ActivityLog struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;index" json:"user_id"`
	Action      string         `gorm:"type:varchar(50);not null" json:"action"`
	Description string         `gorm:"type:varchar(500);not null" json:"description"`
	TargetType  string         `gorm:"type:varchar(50)" json:"target_type"`
	TargetID    *uint64        `json:"target_id"`
	AreaID      *uint64        `gorm:"index" json:"area_id"`
	Details     datatypes.JSON `json:"details"`
	CreatedAt   time.Time      `json:"created_at"`

	// Relations
	User User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Area *Area `gorm:"foreignKey:AreaID" json:"area,omitempty"`
}
