package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/database"
)

// CheckCommand validates the configuration and verifies MongoDB is reachable.
type CheckCommand struct {
	ConfigPath string
}

// NewCheckCommand creates a new CheckCommand.
func NewCheckCommand() *CheckCommand {
	return &CheckCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CheckCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("PSESYNC_CONFIG"), "Path to YAML config file (optional)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s check [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Validate configuration and ping MongoDB without fetching anything.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run performs the readiness check.
func (cmd *CheckCommand) Run() error {
	cfg, err := config.NewConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	fmt.Printf("Configuration ok: %d enabled feed(s), database %s:%d/%s\n",
		len(cfg.EnabledFeeds()), cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	fmt.Println("MongoDB connection ok")
	return nil
}
