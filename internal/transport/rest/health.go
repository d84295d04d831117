package rest

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/chronotracker/chronotracker-api/internal/transport"
)

const healthTimeout = 2 * time.Second

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus              `json:"status"`
	CheckedAt  time.Time                 `json:"checked_at"`
	Components map[string]ComponentState `json:"components"`
}

type ComponentState struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// SessionCounter reports live clock sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// probe inspects one component. A non-nil error marks it unhealthy.
type probe func(ctx context.Context) (map[string]any, error)

type HealthHandler struct {
	*transport.BaseHandler
	probes map[string]probe
}

func NewHealthHandler(baseHandler *transport.BaseHandler, db *sql.DB, sessions SessionCounter) *HealthHandler {
	h := &HealthHandler{BaseHandler: baseHandler, probes: map[string]probe{}}
	if db != nil {
		h.probes["postgres"] = func(ctx context.Context) (map[string]any, error) {
			if err := db.PingContext(ctx); err != nil {
				return nil, err
			}
			stats := db.Stats()
			return map[string]any{"open_connections": stats.OpenConnections, "in_use": stats.InUse}, nil
		}
	}
	if sessions != nil {
		h.probes["clock"] = func(context.Context) (map[string]any, error) {
			return map[string]any{"active_sessions": sessions.ActiveSessions()}, nil
		}
	}
	return h
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health runs every probe and answers 503 when any of them fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now().UTC(),
		Components: make(map[string]ComponentState, len(h.probes)),
	}
	for name, p := range h.probes {
		start := time.Now()
		details, err := p(ctx)
		state := ComponentState{Status: HealthHealthy, Details: details, DurationMs: time.Since(start).Milliseconds()}
		if err != nil {
			state.Status = HealthUnhealthy
			state.Message = err.Error()
			resp.Status = HealthUnhealthy
			h.Logger.Warn("health probe failed", "component", name, "error", err)
		}
		resp.Components[name] = state
	}

	code := http.StatusOK
	if resp.Status == HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, code, resp)
}
