package attachment

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronotracker/chronotracker-api/internal"
)

var errTooLarge = errors.New("payload exceeds size limit")

type Service struct {
	store        Store
	maxSizeBytes int64
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(store Store, maxSizeBytes int64, logger *slog.Logger) *Service {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &Service{
		store:        store,
		maxSizeBytes: maxSizeBytes,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// Upload sniffs the payload, stores it under a fresh reference scoped to the
// uploader and returns that reference.
func (s *Service) Upload(ctx context.Context, actor internal.Actor, r io.Reader) (*Attachment, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, internal.NewValidationError(fmt.Sprintf("failed to read upload: %v", err), internal.ErrCodeInvalidPayload)
	}
	if len(head) == 0 {
		return nil, internal.NewValidationError("file is empty", internal.ErrCodeMissingField)
	}

	contentType := http.DetectContentType(head)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := allowedTypes[contentType]
	if !ok {
		s.logger.Warn("rejected attachment type", "content_type", contentType, "user_id", actor.ID)
		return nil, internal.ErrUnsupportedFile
	}

	ref := path.Join(fmt.Sprint(actor.ID), uuid.NewString()+ext)
	size, err := s.store.Put(ctx, ref, &limitedReader{r: br, remaining: s.maxSizeBytes})
	if err != nil {
		var bodyTooLarge *http.MaxBytesError
		if errors.Is(err, errTooLarge) || errors.As(err, &bodyTooLarge) {
			return nil, internal.ErrFileTooLarge.WithDetails(map[string]int64{"max_size_bytes": s.maxSizeBytes})
		}
		s.logger.Error("failed to store attachment", "error", err, "user_id", actor.ID)
		return nil, internal.NewInternalError("failed to store attachment", err)
	}

	s.logger.Info("attachment stored", "reference", ref, "content_type", contentType, "size", size, "user_id", actor.ID)
	return &Attachment{
		Reference:   ref,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  actor.ID,
		UploadedAt:  s.now().UTC(),
	}, nil
}

// Exists reports whether ref names a stored attachment.
func (s *Service) Exists(ctx context.Context, ref string) (bool, error) {
	return s.store.Exists(ctx, ref)
}

// limitedReader fails once more than remaining bytes are read, unlike
// io.LimitReader which truncates silently.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}
