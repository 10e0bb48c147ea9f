package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestCan(t *testing.T) {
	cases := []struct {
		role model.Role
		res  Resource
		act  Action
		want bool
	}{
		{"", ResSessions, ActList, true},
		{"", ResSessions, ActCreate, false},
		{model.RoleUser, ResRooms, ActCreate, false},
		{model.RoleAdmin, ResRooms, ActCreate, true},
		{model.RoleSuperAdmin, ResMovies, ActDelete, true},
		{model.RoleUser, ResTickets, ActCreate, true},
		{"", ResTickets, ActCreate, false},
		{model.RoleUser, ResStatistics, ActRead, false},
		{model.RoleAdmin, ResStatistics, ActRead, true},
		{model.RoleAdmin, ResUsers, ActGrantSuperAdmin, false},
		{model.RoleSuperAdmin, ResUsers, ActGrantSuperAdmin, true},
		{model.RoleSuperAdmin, ResStatistics, ActDelete, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Can(tc.role, tc.res, tc.act), "%s %s %s", tc.role, tc.res, tc.act)
	}
}

func TestAuthorizeOwnership(t *testing.T) {
	alice := Actor{ID: "alice", Role: model.RoleUser}
	admin := Actor{ID: "root", Role: model.RoleAdmin}

	assert.NoError(t, Authorize(alice, ResTransactions, ActRead, "alice"))
	assert.ErrorIs(t, Authorize(alice, ResTransactions, ActRead, "bob"), ErrForbidden)
	assert.NoError(t, Authorize(admin, ResTransactions, ActRead, "bob"))

	// ownership does not grant admin-only actions
	assert.ErrorIs(t, Authorize(alice, ResUsers, ActSetRole, "alice"), ErrForbidden)

	// anonymous callers never own anything
	assert.ErrorIs(t, Authorize(Actor{}, ResUsers, ActRead, ""), ErrForbidden)
}
