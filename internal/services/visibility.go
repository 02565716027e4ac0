package services

import "github.com/estudio-tools/workflow-api/internal/models"

// Scope is the resolved visibility of a user: either everything, everything in
// a set of areas, or only their own items within a set of areas. It is applied
// uniformly to tasks, processes, tags, templates, users and activity logs.
type Scope struct {
	All     bool
	AreaIDs []uint64
	// OwnOnly limits task visibility to items the user created or is
	// assigned to, on top of the area restriction.
	OwnOnly bool
	UserID  uint64
}

// ResolveScope evaluates the three-tier visibility policy for a user, with an
// optional explicit area filter. Tiers, first match wins:
//
//  1. gerente or the legacy admin flag: all areas (the admin flag bypasses
//     role scoping; observed production behavior, kept as-is)
//  2. usuario / usuario_plus: own tasks only, within area memberships
//  3. supervisor and anything else: all tasks within area memberships
//
// A user with no memberships under tiers 2-3 sees nothing.
func ResolveScope(user *models.User, areaFilter *uint64) Scope {
	scope := Scope{UserID: user.ID}

	switch {
	case user.CanSeeAllAreas():
		scope.All = true
		if areaFilter != nil {
			scope.All = false
			scope.AreaIDs = []uint64{*areaFilter}
		}
	case user.CanOnlySeeOwnTasks():
		scope.OwnOnly = true
		scope.AreaIDs = narrowAreas(user.AreaIDs(), areaFilter)
	default:
		scope.AreaIDs = narrowAreas(user.AreaIDs(), areaFilter)
	}

	return scope
}

// narrowAreas intersects the user's memberships with an explicit area filter.
// A filter outside the memberships yields the empty set, never an escalation.
func narrowAreas(memberships []uint64, areaFilter *uint64) []uint64 {
	if areaFilter == nil {
		return memberships
	}
	for _, id := range memberships {
		if id == *areaFilter {
			return []uint64{*areaFilter}
		}
	}
	return nil
}
