package clock_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/clock"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type recordingCreator struct {
	got []timeentry.CreateTimeEntryDTO
	err error
}

func (c *recordingCreator) Create(_ context.Context, actor internal.Actor, dto timeentry.CreateTimeEntryDTO) (*timeentry.TimeEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.got = append(c.got, dto)
	return &timeentry.TimeEntry{
		ID:             int64(len(c.got)),
		CollaboratorID: actor.ID,
		ProjectID:      dto.ProjectID,
		ActivityID:     dto.ActivityID,
		Origin:         dto.Origin,
	}, nil
}

var _ = Describe("Clock Handler", func() {
	var (
		router  *chi.Mux
		fc      *fakeClock
		tracker *clock.Tracker
		creator *recordingCreator
		actor   internal.Actor
	)

	BeforeEach(func() {
		fc = &fakeClock{t: time.Date(2025, 10, 14, 9, 0, 0, 0, time.Local)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tracker = clock.NewTracker(time.Second, logger).WithClock(fc.now)
		creator = &recordingCreator{}
		actor = internal.Actor{ID: 3, Role: internal.RoleCollaborator}

		handler := clock.NewHandler(&transport.BaseHandler{Logger: logger}, tracker, creator)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithActor(r.Context(), actor)))
			})
		})
		router.Get("/clock", handler.Status)
		router.Post("/clock/start", handler.Start)
		router.Post("/clock/pause", handler.Pause)
		router.Post("/clock/resume", handler.Resume)
		router.Post("/clock/stop", handler.Stop)
		router.Post("/clock/confirm", handler.Confirm)
		router.Delete("/clock", handler.Discard)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("confirms a stopped session into a clock-origin entry", func() {
		Expect(do(http.MethodPost, "/clock/start", nil).Code).To(Equal(http.StatusOK))
		tracker.TickAll()
		fc.advance(90 * time.Minute)
		Expect(do(http.MethodPost, "/clock/stop", nil).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodPost, "/clock/confirm", clock.ConfirmDTO{ProjectID: 10, ActivityID: 20})
		Expect(rec.Code).To(Equal(http.StatusCreated))

		Expect(creator.got).To(HaveLen(1))
		dto := creator.got[0]
		Expect(dto.Origin).To(Equal(timeentry.OriginClock))
		Expect(dto.Date.String()).To(Equal("2025-10-14"))
		Expect(dto.StartTime.String()).To(Equal("09:00"))
		Expect(dto.EndTime.String()).To(Equal("10:30"))

		rec = do(http.MethodGet, "/clock", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"state":"idle"`))
	})

	It("keeps the session when the entry is rejected", func() {
		_, _ = tracker.Start(actor.ID)
		fc.advance(time.Hour)
		_, _ = tracker.Stop(actor.ID)
		creator.err = internal.NewValidationFieldError("activity_id", "activity_id is required", internal.ErrCodeMissingField)

		rec := do(http.MethodPost, "/clock/confirm", clock.ConfirmDTO{ProjectID: 10})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(tracker.Status(actor.ID).State).To(Equal(clock.StateStopped))
	})

	It("refuses to confirm a running session", func() {
		_, _ = tracker.Start(actor.ID)
		rec := do(http.MethodPost, "/clock/confirm", clock.ConfirmDTO{ProjectID: 10, ActivityID: 20})
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeClockTransition)))
		Expect(creator.got).To(BeEmpty())
	})

	It("answers 404 when there is no session to stop", func() {
		rec := do(http.MethodPost, "/clock/stop", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeSessionNotFound)))
	})

	It("answers 409 for an invalid transition", func() {
		_, _ = tracker.Start(actor.ID)
		rec := do(http.MethodPost, "/clock/resume", nil)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("discards the session", func() {
		_, _ = tracker.Start(actor.ID)
		Expect(do(http.MethodDelete, "/clock", nil).Code).To(Equal(http.StatusNoContent))
		Expect(tracker.Status(actor.ID).State).To(Equal(clock.StateIdle))
	})
})
