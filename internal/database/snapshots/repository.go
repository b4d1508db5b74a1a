// Package snapshots persists day snapshots keyed by data_cet.
package snapshots

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mzaleski/psesync/internal/database"
	"github.com/mzaleski/psesync/internal/entities"
)

// ErrSnapshotNotFound indicates no document exists for the requested day.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Repository provides upsert-by-day access to snapshot collections.
type Repository struct {
	db *database.Database
}

// NewRepository creates a snapshot repository on top of an open database.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Ping verifies the underlying connection before a run touches any feed.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Upsert stores a snapshot for its business day. The first write of a day
// creates the document with both the immutable first and the newest snapshot;
// later writes replace only newest and last_update. Returns whether a new
// document was inserted. Upserting identical content twice leaves the stored
// day in the same observable state.
func (r *Repository) Upsert(ctx context.Context, collection string, snap *entities.DaySnapshot) (bool, error) {
	col := r.db.Collection(collection)
	filter := bson.M{"data_cet": snap.DayStart}

	var existing struct {
		ID any `bson:"_id"`
	}
	err := col.FindOne(ctx, filter).Decode(&existing)
	switch {
	case err == nil:
		update := bson.M{"$set": bson.M{
			"newest":      snap.Newest,
			"last_update": snap.LastUpdate,
		}}
		if _, err := col.UpdateByID(ctx, existing.ID, update); err != nil {
			return false, &database.PersistenceError{Op: "update snapshot", Err: err}
		}
		return false, nil

	case errors.Is(err, mongo.ErrNoDocuments):
		if _, err := col.InsertOne(ctx, snap); err != nil {
			return false, &database.PersistenceError{Op: "insert snapshot", Err: err}
		}
		return true, nil

	default:
		return false, &database.PersistenceError{Op: "find snapshot", Err: err}
	}
}

// Get reads a snapshot back by its day key.
func (r *Repository) Get(ctx context.Context, collection string, dayStart time.Time) (*entities.DaySnapshot, error) {
	col := r.db.Collection(collection)

	var snap entities.DaySnapshot
	err := col.FindOne(ctx, bson.M{"data_cet": dayStart}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, &database.PersistenceError{Op: "get snapshot", Err: err}
	}
	return &snap, nil
}
