package expense

import (
	"errors"
	"strings"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/common/validation"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("expense not found")

type CreateExpenseDTO struct {
	ProjectID   int64            `json:"project_id"`
	Type        string           `json:"type"`
	Date        *worktime.Date   `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description,omitempty"`
	Attachment  *string          `json:"attachment"`
}

func (dto CreateExpenseDTO) Validate(today worktime.Date) error {
	v := validation.NewValidator()
	v.Field("project_id", dto.ProjectID).Required()
	v.Field("type", dto.Type).Required().Custom(func(value interface{}) *internal.AppError {
		if _, err := ParseType(value.(string)); err != nil {
			return internal.NewValidationFieldError("type", "type must be one of transport, meal, lodging, other", internal.ErrCodeInvalidType)
		}
		return nil
	})
	v.Field("date", dto.Date).Required().NotAfter(today)
	v.Field("amount", dto.roundedAmount()).Required().PositiveDecimal()
	v.Field("attachment", dto.Attachment).Custom(func(interface{}) *internal.AppError {
		if dto.Attachment == nil || strings.TrimSpace(*dto.Attachment) == "" {
			return internal.NewValidationFieldError("attachment", "attachment required", internal.ErrCodeMissingField)
		}
		return nil
	})
	v.Field("description", dto.Description).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// roundedAmount is the amount as stored, to the cent.
func (dto CreateExpenseDTO) roundedAmount() *decimal.Decimal {
	if dto.Amount == nil {
		return nil
	}
	r := dto.Amount.Round(2)
	return &r
}

type Scope string

const (
	ScopeMine Scope = "mine"
	ScopeTeam Scope = "team"
)

type QueryFilter struct {
	CollaboratorID *int64
	ProjectID      *int64
	From           *worktime.Date
	To             *worktime.Date
	Status         *status.Status
	Scope          Scope
	Limit          int
	Offset         int
}

func (f QueryFilter) Validate() error {
	v := validation.NewValidator()
	if f.Scope != "" {
		v.Field("scope", string(f.Scope)).OneOf(string(ScopeMine), string(ScopeTeam))
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return internal.NewValidationFieldError("to", "to must not be before from", internal.ErrCodeInvalidFilter)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
