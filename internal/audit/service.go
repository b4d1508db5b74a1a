// Package audit records pipeline runs for later inspection. Logging is
// best-effort: an audit failure is logged and swallowed, it never fails the
// run that produced it.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/mzaleski/psesync/internal/entities"
)

// EventLogger persists audit events. Implemented by database/audit.Repository.
type EventLogger interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
}

// Service provides high-level audit logging for pipeline runs.
type Service struct {
	repo EventLogger
}

// NewService creates a new audit service. A nil repo disables auditing.
func NewService(repo EventLogger) *Service {
	return &Service{repo: repo}
}

// LogRun records the outcome of a whole pipeline run.
func (s *Service) LogRun(ctx context.Context, result *entities.RunResult) {
	if s == nil || s.repo == nil {
		return
	}

	event := &entities.AuditEvent{
		EventType:    entities.AuditEventRun,
		Action:       "pipeline_run",
		BusinessDate: result.BusinessDate,
		FeedsOK:      result.Succeeded(),
		FeedsFailed:  len(result.Outcomes) - result.Succeeded(),
		DurationMs:   result.Duration.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}

	switch result.Status {
	case entities.RunCompleted:
		event.Status = entities.AuditStatusSuccess
		event.Description = "all feeds synced"
	case entities.RunCompletedWithErrors:
		event.Status = entities.AuditStatusPartial
		event.Description = "some feeds failed"
	default:
		event.Status = entities.AuditStatusFailed
		event.Description = "run failed before processing feeds"
		if result.Fatal != nil {
			event.ErrorMsg = truncate(result.Fatal.Error(), 500)
		}
	}

	s.log(ctx, event)
}

// LogFeed records the outcome of a single feed within a run.
func (s *Service) LogFeed(ctx context.Context, businessDate string, outcome entities.FeedOutcome) {
	if s == nil || s.repo == nil {
		return
	}

	event := &entities.AuditEvent{
		EventType:    entities.AuditEventFeed,
		Action:       "feed_sync",
		BusinessDate: businessDate,
		Feed:         outcome.Feed,
		RowCount:     outcome.Rows,
		Status:       entities.AuditStatusSuccess,
		Description:  "synced to " + outcome.Collection,
		CreatedAt:    time.Now().UTC(),
	}

	if outcome.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(outcome.Err.Error(), 500)
		event.Description = "sync to " + outcome.Collection + " failed"
	}

	s.log(ctx, event)
}

func (s *Service) log(ctx context.Context, event *entities.AuditEvent) {
	if err := s.repo.LogEvent(ctx, event); err != nil {
		log.Printf("audit: failed to log %s event: %v", event.Action, err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
