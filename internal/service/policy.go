package service

import "github.com/iliyamo/cinema-booking/internal/model"

// Resource and Action name the entries of the authorization matrix.
type (
	Resource string
	Action   string
)

const (
	ResRooms        Resource = "rooms"
	ResMovies       Resource = "movies"
	ResSessions     Resource = "sessions"
	ResTickets      Resource = "tickets"
	ResSupertickets Resource = "supertickets"
	ResUsers        Resource = "users"
	ResTransactions Resource = "transactions"
	ResStatistics   Resource = "statistics"
)

const (
	ActRead    Action = "read"
	ActList    Action = "list"
	ActCreate  Action = "create"
	ActUpdate  Action = "update"
	ActDelete  Action = "delete"
	ActSetRole Action = "set_role"
	ActVerify  Action = "verify"
	// ActGrantSuperAdmin covers granting or revoking SUPERADMIN.
	ActGrantSuperAdmin Action = "grant_superadmin"
)

// Actor is the authenticated caller. The zero Actor is anonymous.
type Actor struct {
	ID   string
	Role model.Role
}

func rank(r model.Role) int {
	switch r {
	case model.RoleUser:
		return 1
	case model.RoleAdmin:
		return 2
	case model.RoleSuperAdmin:
		return 3
	}
	return 0
}

// rule grants an action to every role ranked at least min. When self is
// set, an authenticated owner of the record is allowed regardless.
type rule struct {
	min  model.Role
	self bool
}

const anyone model.Role = ""

var matrix = map[Resource]map[Action]rule{
	ResRooms: {
		ActRead: {min: anyone}, ActList: {min: anyone},
		ActCreate: {min: model.RoleAdmin}, ActUpdate: {min: model.RoleAdmin}, ActDelete: {min: model.RoleAdmin},
	},
	ResMovies: {
		ActRead: {min: anyone}, ActList: {min: anyone},
		ActCreate: {min: model.RoleAdmin}, ActUpdate: {min: model.RoleAdmin}, ActDelete: {min: model.RoleAdmin},
	},
	ResSessions: {
		ActRead: {min: anyone}, ActList: {min: anyone},
		ActCreate: {min: model.RoleAdmin}, ActUpdate: {min: model.RoleAdmin}, ActDelete: {min: model.RoleAdmin},
	},
	ResTickets: {
		ActCreate: {min: model.RoleUser},
		ActRead:   {min: model.RoleAdmin, self: true},
	},
	ResSupertickets: {
		ActCreate: {min: model.RoleUser},
		ActRead:   {min: model.RoleAdmin, self: true},
	},
	ResUsers: {
		ActList:            {min: model.RoleAdmin},
		ActRead:            {min: model.RoleAdmin, self: true},
		ActUpdate:          {min: model.RoleAdmin, self: true},
		ActDelete:          {min: model.RoleAdmin, self: true},
		ActSetRole:         {min: model.RoleAdmin},
		ActGrantSuperAdmin: {min: model.RoleSuperAdmin},
	},
	ResTransactions: {
		ActCreate: {min: model.RoleUser},
		ActList:   {min: model.RoleAdmin},
		ActRead:   {min: model.RoleAdmin, self: true},
		ActVerify: {min: model.RoleAdmin},
	},
	ResStatistics: {
		ActRead: {min: model.RoleAdmin},
	},
}

// Can reports whether role may perform action on resource regardless of
// ownership. Unknown pairs are denied.
func Can(role model.Role, res Resource, act Action) bool {
	r, ok := matrix[res][act]
	if !ok {
		return false
	}
	return rank(role) >= rank(r.min)
}

// Authorize is Can plus ownership: a caller acting on a record it owns
// (ownerID) is allowed where the matrix marks the action as self-service.
func Authorize(actor Actor, res Resource, act Action, ownerID string) error {
	if Can(actor.Role, res, act) {
		return nil
	}
	r := matrix[res][act]
	if r.self && actor.ID != "" && rank(actor.Role) > 0 && actor.ID == ownerID {
		return nil
	}
	return ErrForbidden
}
