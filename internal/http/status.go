package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzaleski/psesync/internal/entities"
)

// RunReporter exposes the scheduler state the status endpoint renders.
// Implemented by scheduler.SyncScheduler.
type RunReporter interface {
	LastRun() *entities.RunResult
	NextRunTime() *time.Time
	IsSyncing() bool
}

type StatusResponse struct {
	Syncing bool           `json:"syncing"`
	NextRun *time.Time     `json:"next_run,omitempty"`
	LastRun *LastRunStatus `json:"last_run,omitempty"`
}

type LastRunStatus struct {
	BusinessDate string   `json:"business_date"`
	Status       string   `json:"status"`
	StartedAt    string   `json:"started_at"`
	DurationMs   int64    `json:"duration_ms"`
	FeedsOK      int      `json:"feeds_ok"`
	FeedsFailed  []string `json:"feeds_failed,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type StatusController struct {
	reporter RunReporter
}

func NewStatusController(reporter RunReporter) *StatusController {
	return &StatusController{reporter: reporter}
}

func (s *StatusController) Status(c *gin.Context) {
	resp := StatusResponse{
		Syncing: s.reporter.IsSyncing(),
		NextRun: s.reporter.NextRunTime(),
	}

	if last := s.reporter.LastRun(); last != nil {
		lr := &LastRunStatus{
			BusinessDate: last.BusinessDate,
			Status:       string(last.Status),
			StartedAt:    last.StartedAt.Format(time.RFC3339),
			DurationMs:   last.Duration.Milliseconds(),
			FeedsOK:      last.Succeeded(),
			FeedsFailed:  last.FailedFeeds(),
		}
		if last.Fatal != nil {
			lr.Error = last.Fatal.Error()
		}
		resp.LastRun = lr
	}

	c.IndentedJSON(http.StatusOK, resp)
}
