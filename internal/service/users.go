package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Forname  string `json:"forname" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserPatch updates the non-nil profile fields.
type UserPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Forname  *string `json:"forname" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// Users manages accounts. Balances are not touched here; see Ledger.
type Users struct {
	users      *repository.UserRepo
	sessions   *repository.SessionRepo
	bcryptCost int
}

func NewUsers(users *repository.UserRepo, sessions *repository.SessionRepo, bcryptCost int) *Users {
	return &Users{users: users, sessions: sessions, bcryptCost: bcryptCost}
}

// Register creates a USER with an empty wallet.
func (s *Users) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.create(ctx, in, model.RoleUser)
}

// CreateWithRole is Register with an explicit role, used for seeding.
func (s *Users) CreateWithRole(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, Invalid("unknown role")
	}
	return s.create(ctx, in, role)
}

func (s *Users) create(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	if err := Check(in); err != nil {
		return nil, err
	}
	u := &model.User{Name: in.Name, Forname: in.Forname, Email: in.Email, Role: role}
	if err := s.users.Create(ctx, u, in.Password, s.bcryptCost); err != nil {
		return nil, fromRepo(err)
	}
	log.WithFields(log.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return u, nil
}

// Authenticate returns the user owning email when password matches.
// Unknown emails and wrong passwords are indistinguishable.
func (s *Users) Authenticate(ctx context.Context, email, password string) (*model.User, bool) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, false
	}
	return u, true
}

func (s *Users) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return u, nil
}

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Update applies a profile patch. A new password is re-hashed.
func (s *Users) Update(ctx context.Context, id string, p UserPatch) (*model.User, error) {
	if err := Check(p); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Forname != nil {
		u.Forname = *p.Forname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, fromRepo(err)
	}
	return u, nil
}

// ChangeRole sets the target's role. Admins may move users between USER
// and ADMIN; granting or revoking SUPERADMIN takes a SUPERADMIN.
func (s *Users) ChangeRole(ctx context.Context, actor Actor, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, Invalid("role must be one of USER ADMIN SUPERADMIN")
	}
	if err := Authorize(actor, ResUsers, ActSetRole, ""); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if role == model.RoleSuperAdmin || u.Role == model.RoleSuperAdmin {
		if err := Authorize(actor, ResUsers, ActGrantSuperAdmin, ""); err != nil {
			return nil, err
		}
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, fromRepo(err)
	}
	log.WithFields(log.Fields{"user_id": id, "role": role, "by": actor.ID}).Info("user role changed")
	u.Role = role
	return u, nil
}

// Delete removes the account. Seats held by its tickets go back to
// their sessions.
func (s *Users) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id, s.sessions); err != nil {
		return fromRepo(err)
	}
	log.WithField("user_id", id).Info("user deleted")
	return nil
}
