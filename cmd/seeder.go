package cmd

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/directory"
	directoryPostgres "github.com/chronotracker/chronotracker-api/internal/directory/postgres"
	"github.com/chronotracker/chronotracker-api/internal/user"
	userPostgres "github.com/chronotracker/chronotracker-api/internal/user/postgres"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed accounts and a sample client, project and activities for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		lg := logger.LoggerWrapper()
		gormDB, db, err := initDB(cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		users := user.NewService(userPostgres.NewUserRepository(gormDB), lg)
		dir := directory.NewService(directoryPostgres.NewDirectoryRepository(gormDB), lg)

		if err := seed(cmd.Context(), users, dir, cmd.OutOrStdout()); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

type accountSeeder interface {
	Create(ctx context.Context, dto user.CreateUserDTO) (*user.User, error)
}

type directorySeeder interface {
	ListProjects(ctx context.Context) ([]*directory.Project, error)
	CreateClient(ctx context.Context, actor internal.Actor, dto directory.CreateClientDTO) (*directory.Client, error)
	CreateProject(ctx context.Context, actor internal.Actor, dto directory.CreateProjectDTO) (*directory.Project, error)
	CreateActivity(ctx context.Context, actor internal.Actor, dto directory.CreateActivityDTO) (*directory.Activity, error)
}

var seedAccounts = []user.CreateUserDTO{
	{Email: "admin@chronotracker.local", Name: "Admin", Role: string(internal.RoleAdmin)},
	{Email: "manager@chronotracker.local", Name: "Marta Manager", Role: string(internal.RoleManager)},
	{Email: "ana@chronotracker.local", Name: "Ana Colaboradora", Role: string(internal.RoleCollaborator)},
	{Email: "bruno@chronotracker.local", Name: "Bruno Colaborador", Role: string(internal.RoleCollaborator)},
}

var seedActivities = []directory.CreateActivityDTO{
	{Name: "Discovery", HorasPrevistas: 40},
	{Name: "Development", HorasPrevistas: 160},
	{Name: "Support", HorasPrevistas: 0},
}

// seed is safe to rerun: accounts are matched by email and the directory
// is only created when no project exists yet.
func seed(ctx context.Context, users accountSeeder, dir directorySeeder, out io.Writer) error {
	var admin *user.User
	for _, dto := range seedAccounts {
		u, err := users.Create(ctx, dto)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", dto.Email, err)
		}
		fmt.Fprintf(out, "user %d %s (%s)\n", u.ID, u.Email, u.Role)
		if u.Role == internal.RoleAdmin && admin == nil {
			admin = u
		}
	}

	projects, err := dir.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		fmt.Fprintln(out, "directory already seeded")
		return nil
	}

	actor := admin.Actor()
	client, err := dir.CreateClient(ctx, actor, directory.CreateClientDTO{Name: "Acme Corp"})
	if err != nil {
		return fmt.Errorf("seed client: %w", err)
	}
	project, err := dir.CreateProject(ctx, actor, directory.CreateProjectDTO{ClientID: client.ID, Name: "Website Revamp"})
	if err != nil {
		return fmt.Errorf("seed project: %w", err)
	}
	fmt.Fprintf(out, "project %d %s for client %s\n", project.ID, project.Name, client.Name)

	for _, dto := range seedActivities {
		dto.ProjectID = project.ID
		a, err := dir.CreateActivity(ctx, actor, dto)
		if err != nil {
			return fmt.Errorf("seed activity %s: %w", dto.Name, err)
		}
		fmt.Fprintf(out, "activity %d %s (%.0fh)\n", a.ID, a.Name, a.HorasPrevistas)
	}
	return nil
}
