// Package entrypoint wires and runs the daemon (schedule) mode: scheduled
// pipeline runs plus the status HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzaleski/psesync/internal/audit"
	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/database"
	dbaudit "github.com/mzaleski/psesync/internal/database/audit"
	"github.com/mzaleski/psesync/internal/database/snapshots"
	http_controllers "github.com/mzaleski/psesync/internal/http"
	"github.com/mzaleski/psesync/internal/pipeline"
	"github.com/mzaleski/psesync/internal/pse"
	"github.com/mzaleski/psesync/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the status server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting status server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown requested, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop the scheduler first so no run starts mid-shutdown
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run starts the scheduler daemon. The MongoDB connection is opened once,
// shared by the pipeline and the health endpoint, and released on shutdown.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting psesync v%s in schedule mode", version)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	db, err := database.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
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
	fetcher := pse.NewClient()

	pipe, err := pipeline.New(fetcher, repo, auditor, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	var sched *scheduler.SyncScheduler
	var reporter http_controllers.RunReporter
	if cfg.Sync.Enabled {
		sched = scheduler.NewSyncScheduler(pipe, cfg.Sync.Schedule)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		reporter = sched
	} else {
		log.Printf("Scheduled sync disabled (SYNC_ENABLED=false), serving status endpoints only")
	}

	gin.SetMode(gin.ReleaseMode)
	router := http_controllers.NewRouter(db, reporter, version)

	Serve(router, cfg, func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
	})

	return nil
}
