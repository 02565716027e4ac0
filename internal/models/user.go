package models

import "time"

type Role string

const (
	// RoleUsuario only sees tasks assigned to or created by them and cannot
	// create tasks or see reports.
	RoleUsuario Role = "usuario"
	// RoleUsuarioPlus can create tasks but still only sees their own.
	RoleUsuarioPlus Role = "usuario_plus"
	// RoleSupervisor sees every task in their areas.
	RoleSupervisor Role = "supervisor"
	// RoleGerente sees every task in every area.
	RoleGerente Role = "gerente"
)

type User struct {
	ID                   uint64    `gorm:"primarykey" json:"id"`
	Username             string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Email                string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash         string    `gorm:"type:varchar(256);not null" json:"-"`
	FullName             string    `gorm:"type:varchar(100);not null" json:"full_name"`
	IsAdmin              bool      `gorm:"default:false" json:"is_admin"`
	NotificationsEnabled bool      `gorm:"default:true" json:"notifications_enabled"`
	Role                 Role      `gorm:"type:varchar(20);not null;default:'usuario'" json:"role"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relations
	Areas         []Area `gorm:"many2many:user_areas" json:"areas,omitempty"`
	CreatedTasks  []Task `gorm:"foreignKey:CreatorID" json:"-"`
	AssignedTasks []Task `gorm:"many2many:task_assignments" json:"-"`
}

// CanSeeAllAreas reports whether the user sees tasks from every area.
// The legacy admin flag short-circuits the role check; that precedence is
// observed production behavior and is kept as-is.
func (u *User) CanSeeAllAreas() bool {
	return u.Role == RoleGerente || u.IsAdmin
}

// CanSeeAllAreaTasks reports whether the user sees all tasks in their areas,
// not just the ones assigned to them.
func (u *User) CanSeeAllAreaTasks() bool {
	return u.Role == RoleSupervisor || u.Role == RoleGerente || u.IsAdmin
}

// CanOnlySeeOwnTasks reports whether visibility is limited to tasks the user
// created or is assigned to.
func (u *User) CanOnlySeeOwnTasks() bool {
	return (u.Role == RoleUsuario || u.Role == RoleUsuarioPlus) && !u.IsAdmin
}

// CanCreateTasks reports whether the user may create tasks.
func (u *User) CanCreateTasks() bool {
	return u.Role == RoleUsuarioPlus || u.Role == RoleSupervisor || u.Role == RoleGerente || u.IsAdmin
}

// CanSeeReports limits report access to supervisors, gerentes and admins.
func (u *User) CanSeeReports() bool {
	return u.Role == RoleSupervisor || u.Role == RoleGerente || u.IsAdmin
}

// AreaIDs returns the IDs of the user's area memberships.
func (u *User) AreaIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Areas))
	for _, a := range u.Areas {
		ids = append(ids, a.ID)
	}
	return ids
}

// BelongsToArea reports whether areaID is among the user's memberships.
func (u *User) BelongsToArea(areaID uint64) bool {
	for _, a := range u.Areas {
		if a.ID == areaID {
			return true
		}
	}
	return false
}
