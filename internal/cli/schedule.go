package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/entrypoint"
)

// ScheduleCommand runs the daemon: cron-driven pipeline runs plus the status
// HTTP server.
type ScheduleCommand struct {
	ConfigPath string
	Version    string
}

// NewScheduleCommand creates a new ScheduleCommand.
func NewScheduleCommand(version string) *ScheduleCommand {
	return &ScheduleCommand{Version: version}
}

// ParseFlags parses command line flags.
func (cmd *ScheduleCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)

	fs.StringVar(&cmd.ConfigPath, "config", os.Getenv("PSESYNC_CONFIG"), "Path to YAML config file (optional)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s schedule [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run as a daemon: execute the pipeline on the configured cron schedule\n")
		fmt.Fprintf(os.Stderr, "and serve /health, /status and /metrics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run starts the daemon and blocks until shutdown.
func (cmd *ScheduleCommand) Run() error {
	cfg, err := config.NewConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	return entrypoint.Run(cfg, cmd.Version)
}
