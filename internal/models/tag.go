package models

import "time"

type Tag struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Color       string    `gorm:"type:varchar(7);not null" json:"color"`
	CreatedByID uint64    `gorm:"not null" json:"created_by_id"`
	AreaID      *uint64   `gorm:"index" json:"area_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	CreatedBy User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Area      *Area `gorm:"foreignKey:AreaID" json:"area,omitempty"`
}
