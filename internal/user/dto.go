package user

import (
	"net/mail"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/common/validation"
)

// CreateUserDTO provisions an account. Accounts come from the seed command;
// there is no public sign-up.
type CreateUserDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (dto CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().MaxLength(255).Custom(func(value interface{}) *internal.AppError {
		if _, err := mail.ParseAddress(value.(string)); err != nil {
			return internal.NewValidationFieldError("email", "email is not a valid address", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("role", dto.Role).Required().OneOf(
		string(internal.RoleCollaborator),
		string(internal.RoleManager),
		string(internal.RoleAdmin),
	)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
