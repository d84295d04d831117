package expense

import (
	"fmt"
	"strings"
	"time"

	expenseDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/expense"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeTransport Type = "transport"
	TypeMeal      Type = "meal"
	TypeLodging   Type = "lodging"
	TypeOther     Type = "other"
)

var Types = []Type{TypeTransport, TypeMeal, TypeLodging, TypeOther}

// typeLabels are the names the web client shows.
var typeLabels = map[Type]string{
	TypeTransport: "Transporte",
	TypeMeal:      "Alimentação",
	TypeLodging:   "Hospedagem",
	TypeOther:     "Outros",
}

func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseType accepts the canonical value or its display label.
func ParseType(raw string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, t := range Types {
		if string(t) == key || strings.ToLower(t.Label()) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown expense type %q", raw)
}

type Expense struct {
	ID              int64           `json:"id"`
	CollaboratorID  int64           `json:"collaborator_id"`
	ProjectID       int64           `json:"project_id"`
	Type            Type            `json:"type"`
	TypeLabel       string          `json:"type_label"`
	Date            worktime.Date   `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	Attachment      string          `json:"attachment"`
	Status          status.Status   `json:"status"`
	StatusLabel     string          `json:"status_label"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ReviewedBy      *int64          `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func FromDataModel(m *expenseDatamodel.Expense) *Expense {
	t := Type(m.Type)
	return &Expense{
		ID:              m.ID,
		CollaboratorID:  m.CollaboratorID,
		ProjectID:       m.ProjectID,
		Type:            t,
		TypeLabel:       t.Label(),
		Date:            worktime.DateOf(m.ExpenseDate),
		Amount:          m.Amount,
		Description:     m.Description,
		Attachment:      m.Attachment,
		Status:          m.Status,
		StatusLabel:     m.Status.Display(),
		RejectionReason: m.RejectionReason,
		ReviewedBy:      m.ReviewedBy,
		ReviewedAt:      m.ReviewedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func FromDataModels(ms []*expenseDatamodel.Expense) []*Expense {
	out := make([]*Expense, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromDataModel(m))
	}
	return out
}
