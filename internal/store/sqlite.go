package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	sqliteListHospitals  = `SELECT id, name, city, state, address FROM hospitals ORDER BY id`
	sqliteGetHospital    = `SELECT id, name, city, state, address FROM hospitals WHERE id = ?`
	sqliteInsertHospital = `INSERT INTO hospitals (id, name, city, state, address) VALUES (?, ?, ?, ?, ?)`
)

// SQLiteStore keeps hospitals in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at opts.DSN.
func OpenSQLite(ctx context.Context, opts Options) (*SQLiteStore, error) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = "hospitals.db"
	}

	memory := isMemoryDSN(dsn)
	if !memory {
		dsn = fileDSN(dsn, opts.BusyTimeout)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Every connection to an in-memory database sees its own empty
	// database, so pin the pool to a single long-lived connection.
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if opts.MaxConns > 0 {
			db.SetMaxOpenConns(opts.MaxConns)
		}
		if opts.MinConns > 0 {
			db.SetMaxIdleConns(opts.MinConns)
		}
		db.SetConnMaxLifetime(opts.MaxConnLifetime)
		db.SetConnMaxIdleTime(opts.MaxConnIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// fileDSN rewrites a database path as a URI whose pragmas run on every new
// connection: writers wait up to busy for a competing lock, and WAL lets
// readers proceed during a write. A DSN that already sets busy_timeout is
// left alone.
func fileDSN(dsn string, busy time.Duration) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", dsn, sep, busy.Milliseconds())
}

func (s *SQLiteStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sqlite connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

func (s *SQLiteStore) ApplySchema(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Seed(ctx context.Context, hospitals []Hospital) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertHospital)
	if err != nil {
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, h := range hospitals {
		if _, err := stmt.ExecContext(ctx, h.ID, h.Name, h.City, h.State, h.Address); err != nil {
			return fmt.Errorf("seed hospital %d: %w", h.ID, classifySQLiteError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) ListHospitals(ctx context.Context) ([]Hospital, error) {
	rows, err := s.conn.QueryContext(ctx, sqliteListHospitals)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hospitals := make([]Hospital, 0)
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.State, &h.Address); err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hospitals: %w", err)
	}
	return hospitals, nil
}

func (s *sqliteSession) GetHospital(ctx context.Context, id int64) (Hospital, bool, error) {
	var h Hospital
	err := s.conn.QueryRowContext(ctx, sqliteGetHospital, id).
		Scan(&h.ID, &h.Name, &h.City, &h.State, &h.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return Hospital{}, false, nil
	}
	if err != nil {
		return Hospital{}, false, fmt.Errorf("get hospital %d: %w", id, err)
	}
	return h, true, nil
}

func (s *sqliteSession) InsertHospital(ctx context.Context, h Hospital) error {
	if _, err := s.conn.ExecContext(ctx, sqliteInsertHospital, h.ID, h.Name, h.City, h.State, h.Address); err != nil {
		return fmt.Errorf("insert hospital %d: %w", h.ID, classifySQLiteError(err))
	}
	return nil
}

func (s *sqliteSession) Close() error {
	return s.conn.Close()
}

// classifySQLiteError maps primary key and unique violations to ErrDuplicateID.
func classifySQLiteError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}
	// Without extended result codes only the primary code is set.
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}
	return err
}
