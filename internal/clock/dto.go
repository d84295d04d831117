package clock

// ConfirmDTO names what the stopped session was spent on.
type ConfirmDTO struct {
	ProjectID   int64   `json:"project_id"`
	ActivityID  int64   `json:"activity_id"`
	Description *string `json:"description,omitempty"`
}
