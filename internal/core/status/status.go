// Package status is the approval lifecycle shared by time entries and
// expenses: pending until a manager approves or rejects, then final.
package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

var All = []Status{Pending, Approved, Rejected}

func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	}
	return false
}

func (s Status) IsFinal() bool {
	return s == Approved || s == Rejected
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	return from == Pending && to.IsFinal()
}

func (s Status) String() string {
	return string(s)
}

// Parse accepts the canonical value and any display label listed in
// Labels, so records written by older clients still load.
func Parse(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s := Status(key); s.Valid() {
		return s, nil
	}
	for s, labels := range Labels {
		for _, l := range labels {
			if strings.ToLower(l) == key {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Labels maps each status to the display strings the UI has used for it.
// The first label is the one Display returns.
var Labels = map[Status][]string{
	Pending:  {"Pendente", "aguardando aprovação"},
	Approved: {"Aprovado", "Aprovada"},
	Rejected: {"Rejeitado", "Reprovada"},
}

func (s Status) Display() string {
	if labels, ok := Labels[s]; ok && len(labels) > 0 {
		return labels[0]
	}
	return string(s)
}
