package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantDup bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, true},
		{"wrapped unique violation", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), true},
		{"not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, false},
		{"plain error", errors.New("duplicate key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPgError(tt.err)
			if errors.Is(got, ErrDuplicateID) != tt.wantDup {
				t.Errorf("classifyPgError(%v) duplicate = %v, want %v", tt.err, !tt.wantDup, tt.wantDup)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classifyPgError(%v) lost the original error", tt.err)
			}
		})
	}
}

// TestPostgres_Roundtrip runs against a live server when HOSPITALS_TEST_POSTGRES_URL is set.
func TestPostgres_Roundtrip(t *testing.T) {
	dsn := os.Getenv("HOSPITALS_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("HOSPITALS_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	st, err := OpenPostgres(ctx, Options{DSN: dsn, MaxConns: 2})
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := st.pool.Exec(ctx, "DROP TABLE IF EXISTS hospitals"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	schema, _ := Schema(DriverPostgres)
	if err := st.ApplySchema(ctx, schema); err != nil {
		t.Fatalf("ApplySchema() error = %v", err)
	}
	if err := st.Seed(ctx, []Hospital{northwestern}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	sess := openSession(t, st)
	got, ok, err := sess.GetHospital(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("GetHospital() = %v, %v", ok, err)
	}
	if got != northwestern {
		t.Errorf("GetHospital() = %+v, want %+v", got, northwestern)
	}

	if err := sess.InsertHospital(ctx, northwestern); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("InsertHospital() duplicate error = %v, want ErrDuplicateID", err)
	}

	list, err := sess.ListHospitals(ctx)
	if err != nil {
		t.Fatalf("ListHospitals() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListHospitals() returned %d rows, want 1", len(list))
	}
}
