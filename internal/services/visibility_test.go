package services

import (
	"testing"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func userWithAreas(role models.Role, isAdmin bool, areaIDs ...uint64) *models.User {
	u := &models.User{ID: 42, Role: role, IsAdmin: isAdmin}
	for _, id := range areaIDs {
		u.Areas = append(u.Areas, models.Area{ID: id})
	}
	return u
}

func TestResolveScopeGerenteSeesEverything(t *testing.T) {
	scope := ResolveScope(userWithAreas(models.RoleGerente, false, 1), nil)
	assert.True(t, scope.All)
	assert.False(t, scope.OwnOnly)
}

func TestResolveScopeAdminFlagOverridesRole(t *testing.T) {
	scope := ResolveScope(userWithAreas(models.RoleUsuario, true, 1), nil)
	assert.True(t, scope.All)
	assert.False(t, scope.OwnOnly, "admin flag bypasses the own-only tier")
}

func TestResolveScopeUsuarioOwnOnlyWithinAreas(t *testing.T) {
	scope := ResolveScope(userWithAreas(models.RoleUsuario, false, 1, 2), nil)
	assert.False(t, scope.All)
	assert.True(t, scope.OwnOnly)
	assert.Equal(t, []uint64{1, 2}, scope.AreaIDs)
	assert.EqualValues(t, 42, scope.UserID)
}

func TestResolveScopeSupervisorAreaWide(t *testing.T) {
	scope := ResolveScope(userWithAreas(models.RoleSupervisor, false, 3), nil)
	assert.False(t, scope.All)
	assert.False(t, scope.OwnOnly)
	assert.Equal(t, []uint64{3}, scope.AreaIDs)
}

func TestResolveScopeNoMembershipsSeesNothing(t *testing.T) {
	scope := ResolveScope(userWithAreas(models.RoleSupervisor, false), nil)
	assert.False(t, scope.All)
	assert.Empty(t, scope.AreaIDs)
}

func TestResolveScopeAreaFilterNarrows(t *testing.T) {
	filter := uint64(2)
	scope := ResolveScope(userWithAreas(models.RoleSupervisor, false, 1, 2), &filter)
	assert.Equal(t, []uint64{2}, scope.AreaIDs)
}

func TestResolveScopeAreaFilterNeverEscalates(t *testing.T) {
	filter := uint64(9)
	scope := ResolveScope(userWithAreas(models.RoleSupervisor, false, 1, 2), &filter)
	assert.Empty(t, scope.AreaIDs, "a filter outside memberships yields nothing")
}

func TestResolveScopeGerenteWithAreaFilter(t *testing.T) {
	filter := uint64(7)
	scope := ResolveScope(userWithAreas(models.RoleGerente, false), &filter)
	assert.False(t, scope.All)
	assert.Equal(t, []uint64{7}, scope.AreaIDs, "gerente may filter to any area")
}
