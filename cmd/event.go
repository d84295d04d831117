package cmd

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chronotracker/chronotracker-api/internal/approval"
	approvalPostgres "github.com/chronotracker/chronotracker-api/internal/approval/postgres"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish record events by hand to inspect handlers and the audit log`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a record event",
	Long:  `Publish a record event such as expense.rejected. With --persist the audit recorder writes it to the database.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishRecordEvent(cmd.Context(), args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

var (
	eventRecordID int64
	eventActorID  int64
	eventReason   string
	eventPersist  bool
)

func publishRecordEvent(ctx context.Context, eventType string) error {
	event, err := recordEventFor(eventType, eventRecordID, eventActorID, eventReason, time.Now())
	if err != nil {
		return err
	}

	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	bus.Subscribe(eventType, func(ctx context.Context, e events.Event) error {
		lg.Info("handler received event",
			"event_id", e.EventID(),
			"event_type", e.EventType(),
			"payload", e.Payload())
		return nil
	})

	if eventPersist {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		gormDB, db, err := initDB(cfg.Database, lg)
		if err != nil {
			return err
		}
		defer db.Close()
		approval.NewAuditRecorder(approvalPostgres.NewAuditRepository(gormDB), lg).Register(bus)
	}

	return bus.PublishSync(ctx, event)
}

// recordEventFor parses "<kind>.<action>" into a RecordEvent.
func recordEventFor(eventType string, recordID, actorID int64, reason string, at time.Time) (*events.RecordEvent, error) {
	if !slices.Contains(events.RecordEventTypes, eventType) {
		return nil, fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.RecordEventTypes)
	}
	if recordID <= 0 || actorID <= 0 {
		return nil, fmt.Errorf("--record-id and --actor-id must be positive")
	}

	kind, action, _ := strings.Cut(eventType, ".")
	if action == events.ActionRejected && reason == "" {
		return nil, fmt.Errorf("--reason is required for %s", eventType)
	}
	return events.NewRecordEvent(kind, action, recordID, 0, actorID, reason, at), nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventRecordID, "record-id", 0, "id of the time entry or expense")
	publishEventCmd.Flags().Int64Var(&eventActorID, "actor-id", 0, "id of the user acting on the record")
	publishEventCmd.Flags().StringVar(&eventReason, "reason", "", "rejection or edit reason")
	publishEventCmd.Flags().BoolVar(&eventPersist, "persist", false, "write the event to the audit log")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
