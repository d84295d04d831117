package cmd

import (
	"encoding/json"
	"log"

	"github.com/spf13/cobra"

	"github.com/chronotracker/chronotracker-api/internal/auth"
	"github.com/chronotracker/chronotracker-api/internal/user"
	userPostgres "github.com/chronotracker/chronotracker-api/internal/user/postgres"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

var tokenUserID int64

// tokenCmd stands in for the identity provider during development.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an existing user",
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
		tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
		svc := auth.NewService(tokens, users, lg)

		resp, err := svc.IssueToken(cmd.Context(), tokenUserID)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "id of the user the token is issued for")
	_ = tokenCmd.MarkFlagRequired("user-id")
}
