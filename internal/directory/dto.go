package directory

import (
	"errors"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/common/validation"
)

var ErrNotFound = errors.New("directory record not found")

type CreateClientDTO struct {
	Name string `json:"name"`
}

func (dto CreateClientDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateProjectDTO struct {
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
}

func (dto CreateProjectDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("client_id", dto.ClientID).Required()
	v.Field("name", dto.Name).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateActivityDTO struct {
	ProjectID      int64   `json:"project_id"`
	Name           string  `json:"name"`
	HorasPrevistas float64 `json:"horas_previstas"`
}

func (dto CreateActivityDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("project_id", dto.ProjectID).Required()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("horas_previstas", dto.HorasPrevistas).Custom(func(value interface{}) *internal.AppError {
		if value.(float64) < 0 {
			return internal.NewValidationFieldError("horas_previstas", "horas_previstas cannot be negative", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type ActivitiesResponse struct {
	Activities []*Activity `json:"activities"`
}
