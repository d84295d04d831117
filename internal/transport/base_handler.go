package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
	"github.com/go-chi/chi"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an AppError body for a bare status and message.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	appErr := &internal.AppError{
		Type:       errorTypeFor(status),
		Code:       internal.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	}
	h.WriteAppError(w, appErr)
}

func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

// HandleServiceError renders err as its AppError, or as an opaque 500 when
// it is not one.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context())
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed", "error", err, "path", r.URL.Path)
		} else {
			log.Warn("request rejected", "error", appErr.GetDetailedMessage(), "code", appErr.Code, "path", r.URL.Path)
		}
		h.WriteAppError(w, appErr)
		return
	}
	log.Error("unexpected service error", "error", err, "path", r.URL.Path)
	h.WriteAppError(w, internal.NewInternalError("internal server error", err))
}

// DecodeJSON reads a single JSON document into dst, rejecting unknown
// fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.NewValidationError("request body is empty", internal.ErrCodeInvalidPayload)
		}
		return internal.NewValidationError(fmt.Sprintf("invalid request body: %v", err), internal.ErrCodeInvalidPayload)
	}
	return nil
}

// IDParam parses the chi URL parameter name as a positive int64.
func (h *BaseHandler) IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, fmt.Sprintf("invalid %s %q", name, raw), internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// Actor returns the authenticated caller, writing a 401 when absent.
func (h *BaseHandler) Actor(w http.ResponseWriter, r *http.Request) (internal.Actor, bool) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok || actor.ID == 0 {
		h.WriteAppError(w, internal.ErrMissingToken)
		return internal.Actor{}, false
	}
	return actor, true
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// QueryInt64 reads an optional positive integer query parameter.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, internal.NewValidationFieldError(name, fmt.Sprintf("invalid %s %q", name, raw), internal.ErrCodeInvalidFilter)
	}
	return &v, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string) (*worktime.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := worktime.ParseDate(raw)
	if err != nil {
		return nil, internal.NewValidationFieldError(name, err.Error(), internal.ErrCodeInvalidFilter)
	}
	return &d, nil
}

// QueryStatus reads an optional status filter in canonical or display form.
func QueryStatus(r *http.Request) (*status.Status, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	s, err := status.Parse(raw)
	if err != nil {
		return nil, internal.NewValidationFieldError("status", err.Error(), internal.ErrCodeInvalidFilter)
	}
	return &s, nil
}

// Pagination reads limit/offset with a default page of 20 and a cap of 100.
func Pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}

func errorTypeFor(status int) internal.ErrorType {
	switch status {
	case http.StatusBadRequest:
		return internal.ErrorTypeValidation
	case http.StatusUnauthorized:
		return internal.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return internal.ErrorTypeForbidden
	case http.StatusNotFound:
		return internal.ErrorTypeNotFound
	case http.StatusConflict:
		return internal.ErrorTypeInvalidState
	default:
		return internal.ErrorTypeInternal
	}
}
