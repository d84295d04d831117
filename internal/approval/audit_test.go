package approval_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/approval"
	approvalPostgres "github.com/chronotracker/chronotracker-api/internal/approval/postgres"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/testdb"
)

var _ = Describe("AuditRecorder", func() {
	var (
		db       *gorm.DB
		recorder *approval.AuditRecorder
		service  *approval.AuditService
		ctx      context.Context
		manager  internal.Actor
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo := approvalPostgres.NewAuditRepository(db)
		recorder = approval.NewAuditRecorder(repo, logger)
		service = approval.NewAuditService(repo, logger)
		ctx = context.Background()
		manager = internal.Actor{ID: 9, Role: internal.RoleManager}
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	It("stores a redelivered event once", func() {
		ev := events.NewRecordEvent(events.RecordKindTimeEntry, events.ActionRejected, 5, 1, 9, "overlap", time.Now())
		Expect(recorder.Handle(ctx, ev)).To(Succeed())
		Expect(recorder.Handle(ctx, ev)).To(Succeed())

		trail, err := service.Trail(ctx, manager, approval.KindTimeEntry, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(trail).To(HaveLen(1))
		Expect(trail[0].Reason).To(Equal("overlap"))
	})

	It("keeps edits and decisions in order", func() {
		t0 := time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)
		edit := events.NewRecordEvent(events.RecordKindTimeEntry, events.ActionEdited, 5, 1, 1, "typo", t0)
		decide := events.NewRecordEvent(events.RecordKindTimeEntry, events.ActionApproved, 5, 1, 9, "", t0.Add(time.Hour))
		Expect(recorder.Handle(ctx, decide)).To(Succeed())
		Expect(recorder.Handle(ctx, edit)).To(Succeed())

		trail, err := service.Trail(ctx, manager, approval.KindTimeEntry, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(trail).To(HaveLen(2))
		Expect(trail[0].Action).To(Equal(events.ActionEdited))
		Expect(trail[1].Action).To(Equal(events.ActionApproved))

		recent, err := service.Recent(ctx, manager, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(HaveLen(1))
		Expect(recent[0].Action).To(Equal(events.ActionApproved))
	})

	It("refuses events it does not understand", func() {
		err := recorder.Handle(ctx, events.BaseEvent{ID: "x", Type: events.EventTypeExpenseApproved})
		Expect(err).To(HaveOccurred())
	})
})
