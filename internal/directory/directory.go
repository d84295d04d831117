package directory

import (
	"time"

	directoryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/directory"
)

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a unit of work inside a project. HorasPrevistas is the number
// of hours budgeted for it.
type Activity struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	Name           string    `json:"name"`
	HorasPrevistas float64   `json:"horas_previstas"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func ClientFromDataModel(c *directoryDatamodel.Client) *Client {
	return &Client{ID: c.ID, Name: c.Name, IsActive: c.IsActive, CreatedAt: c.CreatedAt}
}

func ProjectFromDataModel(p *directoryDatamodel.Project) *Project {
	return &Project{ID: p.ID, ClientID: p.ClientID, Name: p.Name, IsActive: p.IsActive, CreatedAt: p.CreatedAt}
}

func ActivityFromDataModel(a *directoryDatamodel.Activity) *Activity {
	return &Activity{
		ID:             a.ID,
		ProjectID:      a.ProjectID,
		Name:           a.Name,
		HorasPrevistas: a.HorasPrevistas,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}

func ProjectsFromDataModel(ps []*directoryDatamodel.Project) []*Project {
	out := make([]*Project, 0, len(ps))
	for _, p := range ps {
		out = append(out, ProjectFromDataModel(p))
	}
	return out
}

func ActivitiesFromDataModel(as []*directoryDatamodel.Activity) []*Activity {
	out := make([]*Activity, 0, len(as))
	for _, a := range as {
		out = append(out, ActivityFromDataModel(a))
	}
	return out
}
