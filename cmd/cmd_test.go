package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/testdb"
	"github.com/chronotracker/chronotracker-api/internal/directory"
	directoryPostgres "github.com/chronotracker/chronotracker-api/internal/directory/postgres"
	"github.com/chronotracker/chronotracker-api/internal/user"
	userPostgres "github.com/chronotracker/chronotracker-api/internal/user/postgres"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

var _ = Describe("readConfig", func() {
	BeforeEach(func() {
		if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
			Skip("environment configuration is active")
		}
	})

	It("reads config.yml from the given directory", func() {
		dir := GinkgoT().TempDir()
		content := `
http_server:
  port: 9090
  allowed_origins: "http://localhost:3000"
database:
  source: "postgres://localhost/chronotracker"
  max_open_conns: 10
  max_idle_conns: 2
security:
  jwt_secret: "0123456789abcdef0123456789abcdef"
clock:
  tick_interval: 2s
`
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o600)).To(Succeed())

		cfg, err := readConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		cfg.ApplyDefaults()

		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Server.Origins()).To(Equal([]string{"http://localhost:3000"}))
		Expect(cfg.Database.MaxOpenConns).To(Equal(10))
		Expect(cfg.Clock.TickInterval).To(Equal(2 * time.Second))
		Expect(cfg.Security.AccessTokenDuration).To(Equal(8 * time.Hour))
		Expect(cfg.Attachments.MaxSizeBytes).To(Equal(int64(10 << 20)))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("fails without a config file", func() {
		_, err := readConfig(GinkgoT().TempDir())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("seed", func() {
	var (
		db    *gorm.DB
		users *user.Service
		dir   *directory.Service
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = testdb.Close(db) })

		lg := logger.Discard()
		users = user.NewService(userPostgres.NewUserRepository(db), lg)
		dir = directory.NewService(directoryPostgres.NewDirectoryRepository(db), lg)
		ctx = context.Background()
	})

	It("creates accounts and a sample directory", func() {
		var out bytes.Buffer
		Expect(seed(ctx, users, dir, &out)).To(Succeed())

		projects, err := dir.ListProjects(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(projects).To(HaveLen(1))

		activities, err := dir.ListActivities(ctx, projects[0].ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(activities).To(HaveLen(len(seedActivities)))

		Expect(out.String()).To(ContainSubstring("manager@chronotracker.local (manager)"))
	})

	It("can run twice without duplicating anything", func() {
		Expect(seed(ctx, users, dir, &bytes.Buffer{})).To(Succeed())

		var out bytes.Buffer
		Expect(seed(ctx, users, dir, &out)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("directory already seeded"))

		projects, err := dir.ListProjects(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(projects).To(HaveLen(1))

		var count int64
		Expect(db.Table("users").Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(len(seedAccounts))))
	})
})

var _ = Describe("recordEventFor", func() {
	at := time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)

	It("splits the event type into kind and action", func() {
		e, err := recordEventFor(events.EventTypeExpenseRejected, 7, 2, "missing receipt", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.RecordKind).To(Equal(events.RecordKindExpense))
		Expect(e.Action).To(Equal(events.ActionRejected))
		Expect(e.EventType()).To(Equal(events.EventTypeExpenseRejected))
		Expect(e.Reason).To(Equal("missing receipt"))
	})

	It("rejects unknown types, missing ids and reasonless rejections", func() {
		_, err := recordEventFor("expense.paid", 7, 2, "", at)
		Expect(err).To(MatchError(ContainSubstring("unknown event type")))

		_, err = recordEventFor(events.EventTypeTimeEntryApproved, 0, 2, "", at)
		Expect(err).To(HaveOccurred())

		_, err = recordEventFor(events.EventTypeTimeEntryRejected, 7, 2, "", at)
		Expect(err).To(MatchError(ContainSubstring("--reason")))
	})
})

var _ = Describe("seed accounts", func() {
	It("covers every role", func() {
		roles := map[internal.Role]bool{}
		for _, a := range seedAccounts {
			roles[internal.Role(a.Role)] = true
		}
		Expect(roles).To(HaveKey(internal.RoleAdmin))
		Expect(roles).To(HaveKey(internal.RoleManager))
		Expect(roles).To(HaveKey(internal.RoleCollaborator))
	})
})
