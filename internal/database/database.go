package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mzaleski/psesync/internal/config"
)

// PersistenceError wraps a driver failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Database owns the MongoDB connection for the duration of a run. It is
// opened once by Connect and must be released with Close on every exit path.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    config.Database
}

// ConnectionString builds the mongodb:// URI. Credentials are optional; when
// present, authentication happens against the target database.
func ConnectionString(cfg config.Database) string {
	if cfg.Username != "" && cfg.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=%s",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.Name)
	}
	return fmt.Sprintf("mongodb://%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
}

// Connect establishes and verifies the MongoDB connection.
func Connect(ctx context.Context, cfg config.Database) (*Database, error) {
	opts := options.Client().
		ApplyURI(ConnectionString(cfg)).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.PingTimeout).
		SetSocketTimeout(cfg.SocketTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &PersistenceError{Op: "connect", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &PersistenceError{Op: "ping", Err: err}
	}

	return &Database{
		client: client,
		db:     client.Database(cfg.Name),
		cfg:    cfg,
	}, nil
}

// Ping verifies the connection is still usable.
func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.cfg.PingTimeout)
	defer cancel()
	if err := d.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return &PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

// Collection returns a handle to a named collection.
func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Close releases the connection pool.
func (d *Database) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return &PersistenceError{Op: "disconnect", Err: err}
	}
	return nil
}
