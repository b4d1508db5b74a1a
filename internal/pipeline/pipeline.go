// Package pipeline runs the fetch → transform → persist sequence over the
// configured feeds. Execution is strictly sequential; a feed failure is
// recorded and the run moves on to the next feed.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mzaleski/psesync/internal/audit"
	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/entities"
	"github.com/mzaleski/psesync/internal/metrics"
	"github.com/mzaleski/psesync/internal/pse"
	"github.com/mzaleski/psesync/internal/transform"
)

// Fetcher retrieves one report payload for a business date.
// Implemented by pse.Client.
type Fetcher interface {
	FetchDay(ctx context.Context, urlTemplate, businessDate string) (*pse.Payload, error)
}

// Store persists day snapshots. Implemented by snapshots.Repository.
type Store interface {
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, collection string, snap *entities.DaySnapshot) (bool, error)
}

// Pipeline orchestrates one batch run over all enabled feeds.
type Pipeline struct {
	fetcher Fetcher
	store   Store
	auditor *audit.Service
	cfg     *config.Config
	loc     *time.Location
}

// New creates a pipeline. The auditor may be nil to disable run auditing.
func New(fetcher Fetcher, store Store, auditor *audit.Service, cfg *config.Config) (*Pipeline, error) {
	loc, err := time.LoadLocation(cfg.Global.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Global.Timezone, err)
	}
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		auditor: auditor,
		cfg:     cfg,
		loc:     loc,
	}, nil
}

// TargetDate returns the default business date for a run: tomorrow in the
// given timezone. PSE publishes the day-ahead plan for the next business day.
func TargetDate(now time.Time, loc *time.Location) string {
	return now.In(loc).AddDate(0, 0, 1).Format("2006-01-02")
}

// DefaultBusinessDate is TargetDate for the pipeline's configured timezone.
func (p *Pipeline) DefaultBusinessDate() string {
	return TargetDate(time.Now(), p.loc)
}

// Run executes one batch run for the given business date (YYYY-MM-DD).
// The store must be reachable before any feed is fetched; per-feed errors
// never abort the remaining feeds.
func (p *Pipeline) Run(ctx context.Context, businessDate string) *entities.RunResult {
	start := time.Now()
	result := &entities.RunResult{
		BusinessDate: businessDate,
		StartedAt:    start.UTC(),
	}

	if err := p.store.Ping(ctx); err != nil {
		result.Status = entities.RunFailed
		result.Fatal = fmt.Errorf("store unreachable: %w", err)
		result.Duration = time.Since(start)
		log.Printf("pipeline: aborting run for %s: %v", businessDate, result.Fatal)
		p.finish(ctx, result)
		return result
	}

	feeds := p.cfg.EnabledFeeds()
	log.Printf("pipeline: starting run for %s (%d feeds)", businessDate, len(feeds))

	for _, feed := range feeds {
		outcome := p.syncFeed(ctx, feed, businessDate)
		result.Outcomes = append(result.Outcomes, outcome)
		p.auditor.LogFeed(ctx, businessDate, outcome)

		if outcome.Failed() {
			metrics.FeedSyncsTotal.WithLabelValues(feed.Name, "error").Inc()
			log.Printf("pipeline: feed %s: %v", feed.Name, outcome.Err)
			continue
		}
		metrics.FeedSyncsTotal.WithLabelValues(feed.Name, "ok").Inc()
		metrics.RowsTransformed.WithLabelValues(feed.Name).Add(float64(outcome.Rows))
	}

	result.Duration = time.Since(start)
	switch {
	case result.Succeeded() == len(result.Outcomes):
		result.Status = entities.RunCompleted
	default:
		result.Status = entities.RunCompletedWithErrors
	}

	log.Printf("pipeline: run for %s finished: %s (%d/%d feeds ok in %v)",
		businessDate, result.Status, result.Succeeded(), len(result.Outcomes),
		result.Duration.Round(time.Millisecond))

	p.finish(ctx, result)
	return result
}

// syncFeed runs the full sequence for a single feed.
func (p *Pipeline) syncFeed(ctx context.Context, feed config.Feed, businessDate string) entities.FeedOutcome {
	outcome := entities.FeedOutcome{
		Feed:       feed.Name,
		Collection: feed.Collection,
	}

	payload, err := p.fetcher.FetchDay(ctx, feed.URLTemplate, businessDate)
	if err != nil {
		outcome.Err = fmt.Errorf("fetch: %w", err)
		return outcome
	}

	snap, err := transform.DaySnapshot(payload, transform.Spec{
		Location: p.loc,
		IntCols:  feed.IntCols,
	})
	if err != nil {
		outcome.Err = fmt.Errorf("transform: %w", err)
		return outcome
	}
	outcome.Rows = len(snap.Newest)

	inserted, err := p.store.Upsert(ctx, feed.Collection, snap)
	if err != nil {
		outcome.Err = fmt.Errorf("persist: %w", err)
		return outcome
	}
	outcome.Inserted = inserted

	if inserted {
		metrics.SnapshotsInserted.Inc()
	} else {
		metrics.SnapshotsUpdated.Inc()
	}

	return outcome
}

func (p *Pipeline) finish(ctx context.Context, result *entities.RunResult) {
	metrics.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	metrics.RunDuration.Observe(result.Duration.Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()
	p.auditor.LogRun(ctx, result)
}
