package entities

import "time"

type AuditEventType string

const (
	AuditEventRun   AuditEventType = "run"
	AuditEventFeed  AuditEventType = "feed"
	AuditEventCheck AuditEventType = "check"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusPartial AuditStatus = "partial"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is a durable record of one pipeline run (or one feed within it),
// stored in the run_audit collection.
type AuditEvent struct {
	EventType    AuditEventType `bson:"event_type"`
	Action       string         `bson:"action"`      // e.g. "pipeline_run", "feed_sync"
	Description  string         `bson:"description"` // human-readable summary
	BusinessDate string         `bson:"business_date,omitempty"`
	Feed         string         `bson:"feed,omitempty"`
	RowCount     int            `bson:"row_count,omitempty"`
	FeedsOK      int            `bson:"feeds_ok,omitempty"`
	FeedsFailed  int            `bson:"feeds_failed,omitempty"`
	DurationMs   int64          `bson:"duration_ms,omitempty"`
	Status       AuditStatus    `bson:"status"`
	ErrorMsg     string         `bson:"error_msg,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
}
