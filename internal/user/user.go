package user

import (
	"errors"
	"time"

	"github.com/chronotracker/chronotracker-api/internal"
	userDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/user"
)

type User struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      internal.Role `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Actor is the identity a request runs under.
func (u *User) Actor() internal.Actor {
	return internal.Actor{ID: u.ID, Role: u.Role}
}

func (u *User) IsManager() bool {
	return u.Role == internal.RoleManager
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

var ErrNotFound = errors.New("user not found")

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      internal.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
