package models

import "time"

// Area is an organizational department. Users belong to one or more areas and,
// depending on their role, only see tasks/tags/processes scoped to those areas.
type Area struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(7);not null;default:'#6366f1'" json:"color"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Users []User `gorm:"many2many:user_areas" json:"users,omitempty"`
}
