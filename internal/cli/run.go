package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mzaleski/psesync/internal/audit"
	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/database"
	dbaudit "github.com/mzaleski/psesync/internal/database/audit"
	"github.com/mzaleski/psesync/internal/database/snapshots"
	"github.com/mzaleski/psesync/internal/entities"
	"github.com/mzaleski/psesync/internal/pipeline"
	"github.com/mzaleski/psesync/internal/pse"
)

// RunCommand executes one batch run: fetch, transform and persist every
// enabled feed for a single business date.
type RunCommand struct {
	ConfigPath   string
	BusinessDate string
	Timeout      time.Duration
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand() *RunCommand {
	return &RunCommand{}
}

// ParseFlags parses command line flags.
func (cmd *RunCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("PSESYNC_CONFIG"), "Path to YAML config file (optional)")
	fs.StringVar(&cmd.BusinessDate, "date", "", "Business date YYYY-MM-DD (default: tomorrow)")
	fs.DurationVar(&cmd.Timeout, "timeout", 15*time.Minute, "Overall run timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s run [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch PSE reports for one business date and upsert them into MongoDB.\n\n")
		fmt.Fprintf(os.Stderr, "Exit code is 0 when the run completed (even with per-feed errors)\n")
		fmt.Fprintf(os.Stderr, "and 1 when configuration or the database made the run impossible.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s run -date 2026-01-15\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s run -config ./config.yaml\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the batch run. The returned error is non-nil only for the
// Failed terminal state; per-feed failures are reported in the summary.
func (cmd *RunCommand) Run() error {
	cfg, err := config.NewConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	repo := snapshots.NewRepository(db)
	auditor := audit.NewService(dbaudit.NewRepository(db, cfg.Database.AuditCollection))

	pipe, err := pipeline.New(pse.NewClient(), repo, auditor, cfg)
	if err != nil {
		return err
	}

	businessDate := cmd.BusinessDate
	if businessDate == "" {
		businessDate = pipe.DefaultBusinessDate()
	}
	if _, err := time.Parse("2006-01-02", businessDate); err != nil {
		return fmt.Errorf("invalid business date %q: %w", businessDate, err)
	}

	result := pipe.Run(ctx, businessDate)
	printSummary(result)

	if result.Status == entities.RunFailed {
		return fmt.Errorf("run failed: %w", result.Fatal)
	}
	return nil
}

func printSummary(result *entities.RunResult) {
	fmt.Printf("Run for %s: %s (%v)\n",
		result.BusinessDate, result.Status, result.Duration.Round(time.Millisecond))

	for _, o := range result.Outcomes {
		if o.Failed() {
			fmt.Printf("  %-12s FAILED: %v\n", o.Feed, o.Err)
			continue
		}
		action := "updated"
		if o.Inserted {
			action = "created"
		}
		fmt.Printf("  %-12s ok: %d rows, %s %s\n", o.Feed, o.Rows, action, o.Collection)
	}
}
