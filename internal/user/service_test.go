package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/testdb"
	"github.com/chronotracker/chronotracker-api/internal/transport"
	"github.com/chronotracker/chronotracker-api/internal/user"
	userPostgres "github.com/chronotracker/chronotracker-api/internal/user/postgres"
)

var _ = Describe("User", func() {
	var (
		db      *gorm.DB
		service *user.Service
		ctx     context.Context
		slogger *slog.Logger
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(userPostgres.NewUserRepository(db), slogger)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	Describe("Create", func() {
		It("provisions an active account with a normalized email", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Email: " Ana@Example.com ", Name: "Ana", Role: "manager"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.Email).To(Equal("ana@example.com"))
			Expect(u.Role).To(Equal(internal.RoleManager))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.Actor()).To(Equal(internal.Actor{ID: u.ID, Role: internal.RoleManager}))
		})

		It("returns the existing account for a known email", func() {
			first, err := service.Create(ctx, user.CreateUserDTO{Email: "bia@example.com", Name: "Bia", Role: "collaborator"})
			Expect(err).NotTo(HaveOccurred())
			second, err := service.Create(ctx, user.CreateUserDTO{Email: "bia@example.com", Name: "Bia", Role: "collaborator"})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
		})

		It("rejects an unknown role", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "c@example.com", Name: "C", Role: "owner"})
			Expect(internal.IsValidation(err)).To(BeTrue())
		})

		It("rejects a malformed email", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "not-an-email", Name: "C", Role: "admin"})
			Expect(internal.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("GetByID", func() {
		It("reports a missing user", func() {
			_, err := service.GetByID(ctx, 999)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("GET /users/me", func() {
		var handler *user.Handler

		BeforeEach(func() {
			handler = user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		})

		It("returns the caller's profile", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Email: "dan@example.com", Name: "Dan", Role: "collaborator"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req = req.WithContext(internal.ContextWithActor(req.Context(), u.Actor()))
			rec := httptest.NewRecorder()
			handler.GetCurrentUser(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body user.User
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.ID).To(Equal(u.ID))
			Expect(body.Name).To(Equal("Dan"))
			Expect(body.Role).To(Equal(internal.RoleCollaborator))
		})

		It("answers 401 without an actor", func() {
			rec := httptest.NewRecorder()
			handler.GetCurrentUser(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
