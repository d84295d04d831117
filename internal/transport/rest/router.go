package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/approval"
	"github.com/chronotracker/chronotracker-api/internal/attachment"
	"github.com/chronotracker/chronotracker-api/internal/auth"
	"github.com/chronotracker/chronotracker-api/internal/clock"
	"github.com/chronotracker/chronotracker-api/internal/directory"
	"github.com/chronotracker/chronotracker-api/internal/expense"
	"github.com/chronotracker/chronotracker-api/internal/report"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/transport"
	"github.com/chronotracker/chronotracker-api/internal/transport/middleware"
	"github.com/chronotracker/chronotracker-api/internal/transport/swagger"
	"github.com/chronotracker/chronotracker-api/internal/user"
)

// Handlers is everything the HTTP surface is built from.
type Handlers struct {
	Authenticator middleware.Authenticator
	RBAC          *auth.RBACAuthorization
	User          *user.Handler
	Directory     *directory.Handler
	TimeEntry     *timeentry.Handler
	Expense       *expense.Handler
	Attachment    *attachment.Handler
	Approval      *approval.Handler
	Clock         *clock.Handler
	Report        *report.Handler
	Health        *HealthHandler

	// Validator, when set, checks requests against the OpenAPI document.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg internal.ServerConfig, env string, logger *slog.Logger, base *transport.BaseHandler) {
	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(logger, env))
	router.Use(middleware.RecoveryMiddleware(base))
	router.Use(middleware.CORS(cfg.Origins()))
	router.Use(chiMiddleware.CleanPath)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", swagger.SpecHandler(cfg.OpenAPIPath))
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Mount API under /api/v1 to match the OpenAPI paths
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.UserContext(h.Authenticator, base))
			if h.Validator != nil {
				pr.Use(h.Validator)
			}

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Get("/projects", h.Directory.ListProjects)
			pr.Get("/projects/{id}/activities", h.Directory.ListActivities)
			pr.Group(func(ar chi.Router) {
				ar.Use(h.RBAC.RequireAdmin())
				ar.Post("/clients", h.Directory.CreateClient)
				ar.Post("/projects", h.Directory.CreateProject)
				ar.Post("/activities", h.Directory.CreateActivity)
			})

			pr.Route("/time-entries", func(tr chi.Router) {
				tr.Post("/", h.TimeEntry.Create)
				tr.Get("/", h.TimeEntry.List)
				tr.Get("/{id}", h.TimeEntry.Get)
				tr.Patch("/{id}", h.TimeEntry.Update)
				tr.Delete("/{id}", h.TimeEntry.Delete)

				tr.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequireManager())
					mr.Patch("/{id}/approve", h.Approval.Approve(approval.KindTimeEntry))
					mr.Patch("/{id}/reject", h.Approval.Reject(approval.KindTimeEntry))
				})
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/", h.Expense.CreateExpense)
				er.Get("/", h.Expense.ListExpenses)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Delete("/{id}", h.Expense.DeleteExpense)

				er.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequireManager())
					mr.Patch("/{id}/approve", h.Approval.Approve(approval.KindExpense))
					mr.Patch("/{id}/reject", h.Approval.Reject(approval.KindExpense))
				})
			})

			pr.Post("/attachments", h.Attachment.Upload)

			pr.Route("/approvals", func(ar chi.Router) {
				ar.Use(h.RBAC.RequireManager())
				ar.Get("/pending", h.Approval.Pending)
				ar.Get("/audit", h.Approval.AuditLog)
			})

			pr.Route("/clock", func(cr chi.Router) {
				cr.Get("/", h.Clock.Status)
				cr.Delete("/", h.Clock.Discard)
				cr.Post("/start", h.Clock.Start)
				cr.Post("/pause", h.Clock.Pause)
				cr.Post("/resume", h.Clock.Resume)
				cr.Post("/stop", h.Clock.Stop)
				cr.Post("/confirm", h.Clock.Confirm)
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/hours", h.Report.Hours)
				rr.Get("/hours/breakdown", h.Report.Breakdown)
				rr.Get("/activities/{id}/budget", h.Report.Budget)
				rr.Get("/expenses/totals", h.Report.ExpenseTotals)
			})
		})
	})
}

// NewRouter builds a mux with every route registered.
func NewRouter(db *sql.DB, h Handlers, cfg internal.ServerConfig, env string, logger *slog.Logger) *chi.Mux {
	base := transport.NewBaseHandler(logger)
	if h.Health == nil {
		h.Health = NewHealthHandler(base, db, nil)
	}
	router := chi.NewRouter()
	RegisterAllRoutes(router, h, cfg, env, logger, base)
	return router
}
