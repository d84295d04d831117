package attachment

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	Upload(ctx context.Context, actor internal.Actor, r io.Reader) (*Attachment, error)
	MaxSizeBytes() int64
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 64 << 10

// Upload handles POST /attachments with a multipart "file" part.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxSizeBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		h.HandleServiceError(w, r, internal.NewValidationError("expected a multipart/form-data body", internal.ErrCodeInvalidPayload))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.HandleServiceError(w, r, uploadError(err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		att, err := h.Service.Upload(r.Context(), actor, part)
		part.Close()
		if err != nil {
			h.HandleServiceError(w, r, uploadError(err))
			return
		}
		h.WriteJSON(w, http.StatusCreated, att)
		return
	}

	h.HandleServiceError(w, r, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeMissingField))
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrFileTooLarge
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewValidationError("malformed multipart body", internal.ErrCodeInvalidPayload)
}
