package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const (
	pgListHospitals  = `SELECT id, name, city, state, address FROM hospitals ORDER BY id`
	pgGetHospital    = `SELECT id, name, city, state, address FROM hospitals WHERE id = $1`
	pgInsertHospital = `INSERT INTO hospitals (id, name, city, state, address) VALUES ($1, $2, $3, $4, $5)`
)

var hospitalColumns = []string{"id", "name", "city", "state", "address"}

// PostgresStore keeps hospitals in PostgreSQL behind a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pool for opts.DSN and verifies connectivity.
func OpenPostgres(ctx context.Context, opts Options) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire postgres connection: %w", err)
	}
	return &pgSession{conn: conn}, nil
}

// ApplySchema runs script without arguments, so pgx uses the simple
// protocol and multi-statement scripts are accepted.
func (s *PostgresStore) ApplySchema(ctx context.Context, script string) error {
	if _, err := s.pool.Exec(ctx, script); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Seed bulk-loads hospitals with the COPY protocol inside one transaction.
func (s *PostgresStore) Seed(ctx context.Context, hospitals []Hospital) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"hospitals"},
			hospitalColumns,
			pgx.CopyFromSlice(len(hospitals), func(i int) ([]any, error) {
				h := hospitals[i]
				return []any{h.ID, h.Name, h.City, h.State, h.Address}, nil
			}),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed hospitals: %w", classifyPgError(err))
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type pgSession struct {
	conn *pgxpool.Conn
}

func (s *pgSession) ListHospitals(ctx context.Context) ([]Hospital, error) {
	rows, err := s.conn.Query(ctx, pgListHospitals)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	hospitals, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Hospital])
	if err != nil {
		return nil, fmt.Errorf("collect hospitals: %w", err)
	}
	if hospitals == nil {
		hospitals = []Hospital{}
	}
	return hospitals, nil
}

func (s *pgSession) GetHospital(ctx context.Context, id int64) (Hospital, bool, error) {
	var h Hospital
	err := s.conn.QueryRow(ctx, pgGetHospital, id).
		Scan(&h.ID, &h.Name, &h.City, &h.State, &h.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return Hospital{}, false, nil
	}
	if err != nil {
		return Hospital{}, false, fmt.Errorf("get hospital %d: %w", id, err)
	}
	return h, true, nil
}

func (s *pgSession) InsertHospital(ctx context.Context, h Hospital) error {
	if _, err := s.conn.Exec(ctx, pgInsertHospital, h.ID, h.Name, h.City, h.State, h.Address); err != nil {
		return fmt.Errorf("insert hospital %d: %w", h.ID, classifyPgError(err))
	}
	return nil
}

func (s *pgSession) Close() error {
	s.conn.Release()
	return nil
}

// classifyPgError maps unique_violation to ErrDuplicateID.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}
	return err
}
