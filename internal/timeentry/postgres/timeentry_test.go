package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/chronotracker/chronotracker-api/internal/approval"
	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/testdb"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/timeentry/postgres"
)

var _ = Describe("TimeEntryRepository", func() {
	var (
		db   *gorm.DB
		repo *postgres.TimeEntryRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewTimeEntryRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	newEntry := func(collaboratorID int64, day int, start, end string) *timeentryDatamodel.TimeEntry {
		e := &timeentryDatamodel.TimeEntry{
			CollaboratorID: collaboratorID,
			ProjectID:      10,
			ActivityID:     20,
			EntryDate:      worktime.NewDate(2025, 10, day).Time(),
			StartTime:      worktime.MustTimeOfDay(start),
			EndTime:        worktime.MustTimeOfDay(end),
			Origin:         "manual",
			Status:         status.Pending,
		}
		Expect(repo.Create(ctx, e)).To(Succeed())
		return e
	}

	It("round-trips the calendar date and times of day", func() {
		created := newEntry(1, 14, "09:00", "12:30:15")

		got, err := repo.GetByID(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(worktime.DateOf(got.EntryDate)).To(Equal(worktime.NewDate(2025, 10, 14)))
		Expect(got.StartTime).To(Equal(worktime.MustTimeOfDay("09:00")))
		Expect(got.EndTime).To(Equal(worktime.MustTimeOfDay("12:30:15")))
		Expect(got.Status).To(Equal(status.Pending))
	})

	It("maps a missing row to ErrNotFound", func() {
		_, err := repo.GetByID(ctx, 999)
		Expect(err).To(MatchError(timeentry.ErrNotFound))
		Expect(repo.Delete(ctx, 999)).To(MatchError(timeentry.ErrNotFound))
	})

	It("orders by date, start time and id, newest first", func() {
		a := newEntry(1, 13, "09:00", "10:00")
		b := newEntry(1, 14, "08:00", "09:00")
		c := newEntry(1, 14, "13:00", "14:00")
		d := newEntry(1, 14, "13:00", "15:00")

		got, err := repo.Query(ctx, timeentry.Filter{})
		Expect(err).NotTo(HaveOccurred())

		ids := make([]int64, 0, len(got))
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		Expect(ids).To(Equal([]int64{d.ID, c.ID, b.ID, a.ID}))
	})

	It("filters by collaborator, date range and status", func() {
		newEntry(1, 10, "09:00", "10:00")
		inRange := newEntry(1, 12, "09:00", "10:00")
		newEntry(2, 12, "09:00", "10:00")
		newEntry(1, 14, "09:00", "10:00")

		collaborator := int64(1)
		from := worktime.NewDate(2025, 10, 11)
		to := worktime.NewDate(2025, 10, 13)
		pending := status.Pending

		got, err := repo.Query(ctx, timeentry.Filter{
			CollaboratorID: &collaborator,
			From:           &from,
			To:             &to,
			Status:         &pending,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].ID).To(Equal(inRange.ID))
	})

	It("pages with limit and offset", func() {
		for day := 1; day <= 5; day++ {
			newEntry(1, day, "09:00", "10:00")
		}

		got, err := repo.Query(ctx, timeentry.Filter{Limit: 2, Offset: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(worktime.DateOf(got[0].EntryDate)).To(Equal(worktime.NewDate(2025, 10, 4)))
	})

	It("updates editable columns but never the status", func() {
		e := newEntry(1, 14, "09:00", "10:00")
		Expect(repo.TransitionStatus(ctx, approval.TransitionRequest{
			ID: e.ID, From: status.Pending, To: status.Approved, ActorID: 3, At: time.Now(),
		})).To(Succeed())

		reason := "late lunch"
		e.EndTime = worktime.MustTimeOfDay("11:00")
		e.EditReason = &reason
		e.Status = status.Pending
		Expect(repo.Update(ctx, e)).To(Succeed())

		got, err := repo.GetByID(ctx, e.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.EndTime).To(Equal(worktime.MustTimeOfDay("11:00")))
		Expect(*got.EditReason).To(Equal(reason))
		Expect(got.Status).To(Equal(status.Approved))
	})

	It("refuses to update a rejected row", func() {
		e := newEntry(1, 14, "09:00", "10:00")
		reason := "wrong project"
		Expect(repo.TransitionStatus(ctx, approval.TransitionRequest{
			ID: e.ID, From: status.Pending, To: status.Rejected, Reason: &reason, ActorID: 3, At: time.Now(),
		})).To(Succeed())

		e.EndTime = worktime.MustTimeOfDay("11:00")
		Expect(repo.Update(ctx, e)).To(MatchError(timeentry.ErrNotEditable))

		got, err := repo.GetByID(ctx, e.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.EndTime).To(Equal(worktime.MustTimeOfDay("10:00")))

		e.ID = 999
		Expect(repo.Update(ctx, e)).To(MatchError(timeentry.ErrNotFound))
	})

	Describe("approval store", func() {
		It("loads the owner and status", func() {
			e := newEntry(4, 14, "09:00", "10:00")

			rec, err := repo.LoadApprovalRecord(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.OwnerID).To(Equal(int64(4)))
			Expect(rec.Status).To(Equal(status.Pending))

			_, err = repo.LoadApprovalRecord(ctx, 999)
			Expect(err).To(MatchError(approval.ErrRecordNotFound))
		})

		It("transitions only from the expected status", func() {
			e := newEntry(4, 14, "09:00", "10:00")
			reason := "wrong project"
			at := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

			Expect(repo.TransitionStatus(ctx, approval.TransitionRequest{
				ID: e.ID, From: status.Pending, To: status.Rejected, Reason: &reason, ActorID: 3, At: at,
			})).To(Succeed())

			err := repo.TransitionStatus(ctx, approval.TransitionRequest{
				ID: e.ID, From: status.Pending, To: status.Approved, ActorID: 3, At: at,
			})
			Expect(err).To(MatchError(approval.ErrTransitionConflict))

			got, err := repo.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(status.Rejected))
			Expect(*got.RejectionReason).To(Equal(reason))
			Expect(*got.ReviewedBy).To(Equal(int64(3)))
		})

		It("reports a vanished row as not found", func() {
			err := repo.TransitionStatus(ctx, approval.TransitionRequest{
				ID: 999, From: status.Pending, To: status.Approved, ActorID: 3, At: time.Now(),
			})
			Expect(err).To(MatchError(approval.ErrRecordNotFound))
		})

		It("queues pending entries oldest first", func() {
			first := newEntry(1, 14, "09:00", "10:30")
			second := newEntry(2, 14, "09:00", "10:00")
			decided := newEntry(2, 13, "09:00", "10:00")
			Expect(repo.TransitionStatus(ctx, approval.TransitionRequest{
				ID: decided.ID, From: status.Pending, To: status.Approved, ActorID: 3, At: time.Now(),
			})).To(Succeed())

			items, err := repo.PendingApprovals(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal(first.ID))
			Expect(*items[0].Hours).To(Equal(1.5))
			Expect(items[1].ID).To(Equal(second.ID))
			Expect(items[1].Kind).To(Equal(approval.KindTimeEntry))
		})
	})
})
