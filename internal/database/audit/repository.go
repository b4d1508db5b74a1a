// Package audit stores run audit events in MongoDB.
package audit

import (
	"context"

	"github.com/mzaleski/psesync/internal/database"
	"github.com/mzaleski/psesync/internal/entities"
)

// Repository appends audit events to the configured audit collection.
type Repository struct {
	db         *database.Database
	collection string
}

// NewRepository creates an audit repository writing to the given collection.
func NewRepository(db *database.Database, collection string) *Repository {
	return &Repository{db: db, collection: collection}
}

// LogEvent persists one audit event.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if _, err := r.db.Collection(r.collection).InsertOne(ctx, event); err != nil {
		return &database.PersistenceError{Op: "insert audit event", Err: err}
	}
	return nil
}
