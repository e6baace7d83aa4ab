package portal_test

import (
	"testing"

	"github.com/campuskit/portal"
	"github.com/stretchr/testify/assert"
)

func TestUserEnsureDefaults(t *testing.T) {
	user := &portal.User{}
	user.EnsureDefaults()

	assert.Equal(t, portal.RoleApplicant, user.Role)
	assert.Equal(t, portal.StatusPending, user.Status)
}

func TestUserEnsureDefaultsKeepsExistingValues(t *testing.T) {
	user := &portal.User{Role: portal.RoleAdmin, Status: portal.StatusAccepted}
	user.EnsureDefaults()

	assert.Equal(t, portal.RoleAdmin, user.Role)
	assert.Equal(t, portal.StatusAccepted, user.Status)
}

func TestUserRoleHelpers(t *testing.T) {
	admin := &portal.User{Role: portal.RoleAdmin, Status: portal.StatusAccepted}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsStaff())
	assert.True(t, admin.IsAccepted())

	staff := &portal.User{Role: portal.RoleStaff, Status: portal.StatusAccepted}
	assert.False(t, staff.IsAdmin())
	assert.True(t, staff.IsStaff())

	student := &portal.User{Role: portal.RoleStudent, Status: portal.StatusPending}
	assert.False(t, student.IsStaff())
	assert.False(t, student.IsAccepted())
}

func TestParseRole(t *testing.T) {
	role, ok := portal.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, portal.RoleAdmin, role)

	_, ok = portal.ParseRole("superuser")
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	status, ok := portal.ParseStatus("accepted")
	assert.True(t, ok)
	assert.Equal(t, portal.StatusAccepted, status)

	_, ok = portal.ParseStatus("banned")
	assert.False(t, ok)
}

func TestAllRolesAndStatuses(t *testing.T) {
	assert.Equal(t, []portal.Role{
		portal.RoleApplicant,
		portal.RoleStudent,
		portal.RoleStaff,
		portal.RoleAdmin,
	}, portal.AllRoles())

	assert.Equal(t, []portal.AccountStatus{
		portal.StatusPending,
		portal.StatusAccepted,
		portal.StatusDenied,
	}, portal.AllStatuses())

	for _, role := range portal.AllRoles() {
		assert.True(t, portal.RoleIsValid(role))
	}
	for _, status := range portal.AllStatuses() {
		assert.True(t, portal.StatusIsValid(status))
	}
}
