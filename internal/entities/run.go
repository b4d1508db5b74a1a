package entities

import "time"

type RunStatus string

const (
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// FeedOutcome records what happened to a single configured feed during a run.
type FeedOutcome struct {
	Feed       string
	Collection string
	Rows       int
	Inserted   bool // first document for the day, as opposed to a newest-only update
	Err        error
}

// Failed reports whether the feed did not make it to the store.
func (o FeedOutcome) Failed() bool {
	return o.Err != nil
}

// RunResult aggregates a full pipeline run over all configured feeds.
type RunResult struct {
	BusinessDate string
	StartedAt    time.Time
	Duration     time.Duration
	Outcomes     []FeedOutcome
	Status       RunStatus

	// Fatal is set when the run never got to processing feeds
	// (configuration or store connectivity), never for per-feed errors.
	Fatal error
}

// Succeeded counts feeds that were fetched, transformed and persisted.
func (r RunResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// FailedFeeds returns the names of feeds that errored during the run.
func (r RunResult) FailedFeeds() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Failed() {
			names = append(names, o.Feed)
		}
	}
	return names
}

// ExitCode maps the terminal status to the process exit code: partial
// failures still exit zero, only a fatal run is non-zero.
func (r RunResult) ExitCode() int {
	if r.Status == RunFailed {
		return 1
	}
	return 0
}
