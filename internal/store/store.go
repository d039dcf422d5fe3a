// Package store is the relational persistence layer for hospital records.
//
// Two drivers implement [Store]: SQLite (a single database file, the default)
// and PostgreSQL. Callers work through short-lived [Session] values; every
// session must be closed on all exit paths, typically with defer.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema
var schemaFiles embed.FS

// Driver names a store implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrDuplicateID is returned by inserts that collide with an existing id.
var ErrDuplicateID = errors.New("duplicate key: hospital id already exists")

// Hospital is one row of the hospitals table. The text columns are
// nullable and marshal to JSON null when NULL.
type Hospital struct {
	ID      int64       `json:"id"`
	Name    pgtype.Text `json:"name"`
	City    pgtype.Text `json:"city"`
	State   pgtype.Text `json:"state"`
	Address pgtype.Text `json:"address"`
}

// Text returns a non-NULL text value.
func Text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// DefaultBusyTimeout is how long a SQLite writer waits for a competing
// writer's lock before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// Options configures a store connection.
type Options struct {
	Driver          Driver
	DSN             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// BusyTimeout applies to file-backed SQLite only. Zero means
	// DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// Store owns the connection pool for the hospitals table.
type Store interface {
	// Session acquires a connection for the duration of one request.
	Session(ctx context.Context) (Session, error)

	// ApplySchema executes a (possibly multi-statement) DDL script.
	ApplySchema(ctx context.Context, script string) error

	// Seed inserts all hospitals in a single transaction.
	Seed(ctx context.Context, hospitals []Hospital) error

	Ping(ctx context.Context) error
	Close() error
}

// Session is a request-scoped connection. Each statement autocommits.
type Session interface {
	// ListHospitals returns every hospital ordered by id ascending.
	ListHospitals(ctx context.Context) ([]Hospital, error)

	// GetHospital returns the hospital with the given id; ok is false when
	// no such row exists.
	GetHospital(ctx context.Context, id int64) (h Hospital, ok bool, err error)

	// InsertHospital writes a new row. A primary key collision is reported
	// as an error wrapping ErrDuplicateID.
	InsertHospital(ctx context.Context, h Hospital) error

	// Close releases the underlying connection.
	Close() error
}

// Open connects to the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts)
	case DriverPostgres:
		return OpenPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", opts.Driver)
	}
}

// Schema returns the bundled DDL for driver.
func Schema(driver Driver) (string, error) {
	switch Driver(strings.ToLower(string(driver))) {
	case DriverSQLite, "":
		driver = DriverSQLite
	case DriverPostgres:
	default:
		return "", fmt.Errorf("no schema for driver %q", driver)
	}
	data, err := schemaFiles.ReadFile("schema/" + string(driver) + ".sql")
	if err != nil {
		return "", fmt.Errorf("read %s schema: %w", driver, err)
	}
	return string(data), nil
}
