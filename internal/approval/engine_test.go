package approval_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/approval"
	approvalPostgres "github.com/chronotracker/chronotracker-api/internal/approval/postgres"
	expenseDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/expense"
	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/testdb"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	expensePostgres "github.com/chronotracker/chronotracker-api/internal/expense/postgres"
	timeentryPostgres "github.com/chronotracker/chronotracker-api/internal/timeentry/postgres"
)

// spyStore counts calls so tests can prove the engine stopped early.
type spyStore struct {
	loads       int
	transitions int
}

func (s *spyStore) LoadApprovalRecord(context.Context, int64) (*approval.Record, error) {
	s.loads++
	return &approval.Record{ID: 1, OwnerID: 1, Status: status.Pending}, nil
}

func (s *spyStore) TransitionStatus(context.Context, approval.TransitionRequest) error {
	s.transitions++
	return nil
}

func (s *spyStore) PendingApprovals(context.Context, int, int) ([]approval.QueueItem, error) {
	return nil, nil
}

var _ = Describe("Approval Engine", func() {
	var (
		db       *gorm.DB
		entries  *timeentryPostgres.TimeEntryRepository
		expenses *expensePostgres.ExpenseRepository
		bus      *events.EventBus
		engine   *approval.Engine
		audit    *approval.AuditService
		ctx      context.Context

		collaborator internal.Actor
		manager      internal.Actor
		otherManager internal.Actor
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		entries = timeentryPostgres.NewTimeEntryRepository(db)
		expenses = expensePostgres.NewExpenseRepository(db)
		bus = events.NewEventBus(logger)

		auditRepo := approvalPostgres.NewAuditRepository(db)
		approval.NewAuditRecorder(auditRepo, logger).Register(bus)
		audit = approval.NewAuditService(auditRepo, logger)

		engine = approval.NewEngine(entries, expenses, bus, logger)
		ctx = context.Background()

		collaborator = internal.Actor{ID: 1, Role: internal.RoleCollaborator}
		manager = internal.Actor{ID: 2, Role: internal.RoleManager}
		otherManager = internal.Actor{ID: 3, Role: internal.RoleManager}
	})

	AfterEach(func() {
		Expect(bus.Wait(ctx)).To(Succeed())
		Expect(testdb.Close(db)).To(Succeed())
	})

	pendingEntry := func(ownerID int64) int64 {
		e := &timeentryDatamodel.TimeEntry{
			CollaboratorID: ownerID,
			ProjectID:      10,
			ActivityID:     20,
			EntryDate:      worktime.NewDate(2025, 10, 14).Time(),
			StartTime:      worktime.MustTimeOfDay("09:00"),
			EndTime:        worktime.MustTimeOfDay("12:00"),
			Origin:         "manual",
			Status:         status.Pending,
		}
		Expect(entries.Create(ctx, e)).To(Succeed())
		return e.ID
	}

	pendingExpense := func(ownerID int64) int64 {
		exp := &expenseDatamodel.Expense{
			CollaboratorID: ownerID,
			ProjectID:      10,
			Type:           "meal",
			ExpenseDate:    worktime.NewDate(2025, 10, 14).Time(),
			Amount:         decimal.NewFromInt(150),
			Attachment:     "receipt.pdf",
			Status:         status.Pending,
		}
		Expect(expenses.Create(ctx, exp)).To(Succeed())
		return exp.ID
	}

	statusOf := func(id int64) status.Status {
		e, err := entries.GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return e.Status
	}

	It("approves a pending entry and refuses a later rejection", func() {
		id := pendingEntry(collaborator.ID)

		decision, err := engine.Approve(ctx, manager, approval.KindTimeEntry, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Status).To(Equal(status.Approved))
		Expect(statusOf(id)).To(Equal(status.Approved))

		_, err = engine.Reject(ctx, manager, approval.KindTimeEntry, id, "too late")
		Expect(internal.IsInvalidState(err)).To(BeTrue())
		Expect(statusOf(id)).To(Equal(status.Approved))
	})

	It("refuses collaborators and leaves the status alone", func() {
		id := pendingEntry(4)

		_, err := engine.Approve(ctx, collaborator, approval.KindTimeEntry, id)
		Expect(internal.IsPermission(err)).To(BeTrue())
		Expect(statusOf(id)).To(Equal(status.Pending))
	})

	It("refuses a manager deciding on their own record", func() {
		id := pendingEntry(manager.ID)

		_, err := engine.Approve(ctx, manager, approval.KindTimeEntry, id)
		Expect(err).To(MatchError(internal.ErrSelfApproval))

		_, err = engine.Approve(ctx, otherManager, approval.KindTimeEntry, id)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports unknown records per kind", func() {
		_, err := engine.Approve(ctx, manager, approval.KindTimeEntry, 999)
		Expect(err).To(MatchError(internal.ErrTimeEntryNotFound))

		_, err = engine.Reject(ctx, manager, approval.KindExpense, 999, "no receipt")
		Expect(err).To(MatchError(internal.ErrExpenseNotFound))
	})

	It("rejects an expense and records the reason", func() {
		id := pendingExpense(collaborator.ID)

		decision, err := engine.Reject(ctx, manager, approval.KindExpense, id, "  receipt unreadable ")
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Reason).To(Equal("receipt unreadable"))

		exp, err := expenses.GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp.Status).To(Equal(status.Rejected))
		Expect(*exp.RejectionReason).To(Equal("receipt unreadable"))
		Expect(*exp.ReviewedBy).To(Equal(manager.ID))
	})

	It("checks role and reason before touching storage", func() {
		spy := &spyStore{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		spied := approval.NewEngine(spy, spy, bus, logger)

		_, err := spied.Reject(ctx, manager, approval.KindTimeEntry, 1, "   ")
		Expect(err).To(MatchError(internal.ErrMissingReason))

		_, err = spied.Approve(ctx, collaborator, approval.KindExpense, 1)
		Expect(internal.IsPermission(err)).To(BeTrue())

		_, err = spied.Approve(ctx, manager, approval.Kind("invoice"), 1)
		Expect(internal.IsValidation(err)).To(BeTrue())

		Expect(spy.loads).To(BeZero())
		Expect(spy.transitions).To(BeZero())
	})

	It("lets exactly one of two concurrent decisions win", func() {
		id := pendingEntry(collaborator.ID)

		var (
			wg    sync.WaitGroup
			errs  = make([]error, 2)
			start = make(chan struct{})
		)
		wg.Add(2)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			<-start
			_, errs[0] = engine.Approve(ctx, manager, approval.KindTimeEntry, id)
		}()
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			<-start
			_, errs[1] = engine.Reject(ctx, otherManager, approval.KindTimeEntry, id, "overlaps")
		}()
		close(start)
		wg.Wait()

		succeeded, conflicted := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case internal.IsInvalidState(err):
				conflicted++
			}
		}
		Expect(succeeded).To(Equal(1))
		Expect(conflicted).To(Equal(1))
		Expect(statusOf(id).IsFinal()).To(BeTrue())
	})

	It("writes an audit trail from the decision events", func() {
		id := pendingExpense(collaborator.ID)
		_, err := engine.Approve(ctx, manager, approval.KindExpense, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(bus.Wait(ctx)).To(Succeed())

		trail, err := audit.Trail(ctx, manager, approval.KindExpense, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(trail).To(HaveLen(1))
		Expect(trail[0].Action).To(Equal(events.ActionApproved))
		Expect(trail[0].ActorID).To(Equal(manager.ID))

		_, err = audit.Trail(ctx, collaborator, approval.KindExpense, id)
		Expect(err).To(MatchError(internal.ErrManagerRequired))
	})

	It("serves the pending queue to managers only", func() {
		entryID := pendingEntry(collaborator.ID)
		expenseID := pendingExpense(collaborator.ID)
		decided := pendingEntry(collaborator.ID)
		_, err := engine.Approve(ctx, manager, approval.KindTimeEntry, decided)
		Expect(err).NotTo(HaveOccurred())

		items, err := engine.Pending(ctx, manager, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))

		var ids []int64
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		Expect(ids).To(ConsistOf(entryID, expenseID))

		_, err = engine.Pending(ctx, collaborator, 0)
		Expect(internal.IsPermission(err)).To(BeTrue())
	})

	It("stamps decisions with the engine clock", func() {
		at := time.Date(2025, 10, 15, 8, 30, 0, 0, time.UTC)
		engine.WithClock(func() time.Time { return at })
		id := pendingEntry(collaborator.ID)

		decision, err := engine.Approve(ctx, manager, approval.KindTimeEntry, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.DecidedAt).To(Equal(at))
	})
})
