package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/approval"
	approvalPostgres "github.com/chronotracker/chronotracker-api/internal/approval/postgres"
	"github.com/chronotracker/chronotracker-api/internal/attachment"
	"github.com/chronotracker/chronotracker-api/internal/auth"
	"github.com/chronotracker/chronotracker-api/internal/clock"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/directory"
	directoryPostgres "github.com/chronotracker/chronotracker-api/internal/directory/postgres"
	"github.com/chronotracker/chronotracker-api/internal/expense"
	expensePostgres "github.com/chronotracker/chronotracker-api/internal/expense/postgres"
	"github.com/chronotracker/chronotracker-api/internal/report"
	reportPostgres "github.com/chronotracker/chronotracker-api/internal/report/postgres"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	timeentryPostgres "github.com/chronotracker/chronotracker-api/internal/timeentry/postgres"
	"github.com/chronotracker/chronotracker-api/internal/transport"
	"github.com/chronotracker/chronotracker-api/internal/transport/rest"
	"github.com/chronotracker/chronotracker-api/internal/transport/swagger"
	"github.com/chronotracker/chronotracker-api/internal/user"
	userPostgres "github.com/chronotracker/chronotracker-api/internal/user/postgres"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	GormDB   *gorm.DB
	DB       *sqlx.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Tracker  *clock.Tracker
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	trackerDone := make(chan struct{})
	go func() {
		deps.Tracker.Run(ctx)
		close(trackerDone)
	}()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdown(deps, server, stop, trackerDone)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// shutdown drains HTTP first, then the clock ticker, then in-flight audit
// handlers, and closes the pool last.
func shutdown(deps *Dependencies, server *http.Server, stopTracker context.CancelFunc, trackerDone <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}
	stopTracker()
	<-trackerDone
	deps.EventBus.Close()
	if err := deps.EventBus.Wait(ctx); err != nil {
		deps.Logger.Error("Event handlers did not finish", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	gormDB, db, err := initDB(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	tracker := clock.NewTracker(config.Clock.TickInterval, lg)

	handlers, err := buildHandlers(context.Background(), config, gormDB, db, bus, tracker, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	env := config.Observability.Logging.Env
	return &Dependencies{
		Config:   config,
		GormDB:   gormDB,
		DB:       db,
		Router:   rest.NewRouter(db.DB, handlers, config.Server, env, lg),
		EventBus: bus,
		Tracker:  tracker,
		Logger:   lg,
	}, nil
}

func buildHandlers(ctx context.Context, config *internal.Config, gormDB *gorm.DB, db *sqlx.DB, bus *events.EventBus, tracker *clock.Tracker, lg *slog.Logger) (rest.Handlers, error) {
	base := transport.NewBaseHandler(lg)

	userService := user.NewService(userPostgres.NewUserRepository(gormDB), lg)
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)
	authService := auth.NewService(tokens, userService, lg)

	directoryService := directory.NewService(directoryPostgres.NewDirectoryRepository(gormDB), lg)

	store, err := attachment.NewLocalStore(config.Attachments.BasePath)
	if err != nil {
		return rest.Handlers{}, fmt.Errorf("failed to open attachment store: %w", err)
	}
	attachmentService := attachment.NewService(store, config.Attachments.MaxSizeBytes, lg)

	entryRepo := timeentryPostgres.NewTimeEntryRepository(gormDB)
	entryService := timeentry.NewService(entryRepo, directoryService, bus, lg)

	expenseRepo := expensePostgres.NewExpenseRepository(gormDB)
	expenseService := expense.NewService(expenseRepo, attachmentService, lg)

	auditRepo := approvalPostgres.NewAuditRepository(gormDB)
	approval.NewAuditRecorder(auditRepo, lg).Register(bus)
	engine := approval.NewEngine(entryRepo, expenseRepo, bus, lg)

	reportService := report.NewService(reportPostgres.NewReader(db), directoryService, lg)

	handlers := rest.Handlers{
		Authenticator: authService,
		RBAC:          auth.NewRBACAuthorization(base),
		User:          user.NewHandler(base, userService),
		Directory:     directory.NewHandler(base, directoryService),
		TimeEntry:     timeentry.NewHandler(base, entryService),
		Expense:       expense.NewHandler(base, expenseService),
		Attachment:    attachment.NewHandler(base, attachmentService),
		Approval:      approval.NewHandler(base, engine, approval.NewAuditService(auditRepo, lg)),
		Clock:         clock.NewHandler(base, tracker, entryService),
		Report:        report.NewHandler(base, reportService),
		Health:        rest.NewHealthHandler(base, db.DB, tracker),
	}

	if config.Server.ValidateRequests {
		doc, err := swagger.LoadSpec(ctx, config.Server.OpenAPIPath)
		if err != nil {
			return rest.Handlers{}, err
		}
		validator, err := swagger.RequestValidator(doc, base)
		if err != nil {
			return rest.Handlers{}, err
		}
		handlers.Validator = validator
	}
	return handlers, nil
}

// initDB opens the gorm pool the repositories use and wraps the same
// *sql.DB in sqlx for the reporting queries.
func initDB(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, *sqlx.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.NewSlogLogger(lg, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, "pgx"), nil
}
