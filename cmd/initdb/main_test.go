package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/hospitals/internal/config"
	"github.com/JonMunkholm/hospitals/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.FileEnvVar, "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("config.LoadFile() error = %v", err)
	}
	return cfg
}

const northwesternSeed = `[{"id": 1, "name": "Northwestern Memorial Hospital", "city": "Chicago", "state": "IL", "address": "251 E Huron St"}]`

func writeFixtures(t *testing.T, seed string) (schemaPath, seedPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	schema, err := store.Schema(store.DriverSQLite)
	if err != nil {
		t.Fatal(err)
	}
	return writeFile(t, dir, "schema.sql", schema),
		writeFile(t, dir, "hospitals.json", seed),
		filepath.Join(dir, "hospitals.db")
}

func countHospitals(t *testing.T, dbPath string) int {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{Driver: store.DriverSQLite, DSN: dbPath})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()

	sess, err := st.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	defer sess.Close()

	all, err := sess.ListHospitals(ctx)
	if err != nil {
		t.Fatalf("ListHospitals() error = %v", err)
	}
	return len(all)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitDB(t *testing.T) {
	dir := t.TempDir()
	schema, err := store.Schema(store.DriverSQLite)
	if err != nil {
		t.Fatal(err)
	}
	schemaPath := writeFile(t, dir, "schema.sql", schema)
	seedPath := writeFile(t, dir, "hospitals.json",
		`[{"id": 1, "name": "Northwestern Memorial Hospital", "city": "Chicago", "state": "IL", "address": "251 E Huron St"}]`)
	dbPath := filepath.Join(dir, "hospitals.db")

	cmd := newRootCmd(testConfig(t))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--driver", "sqlite", "--db", dbPath, "-s", schemaPath, "-l", seedPath})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "loaded 1 hospitals") {
		t.Errorf("output = %q", out.String())
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{Driver: store.DriverSQLite, DSN: dbPath})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()

	sess, err := st.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	defer sess.Close()

	h, ok, err := sess.GetHospital(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("GetHospital() = %v, %v, %v", h, ok, err)
	}
	if h.Name.String != "Northwestern Memorial Hospital" {
		t.Errorf("Name = %q", h.Name.String)
	}
}

func TestInitDB_RequiresFlags(t *testing.T) {
	cmd := newRootCmd(testConfig(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "x.db")})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Execute() without --schema and --load error = nil")
	}
}

func TestInitDB_DBFlagAliases(t *testing.T) {
	tests := []struct {
		name string
		args func(dbPath string) []string
	}{
		{"db_name", func(p string) []string { return []string{"--db_name", p} }},
		{"db_name with equals", func(p string) []string { return []string{"--db_name=" + p} }},
		{"single dash db", func(p string) []string { return []string{"-db", p} }},
		{"single dash db_name", func(p string) []string { return []string{"-db_name=" + p} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemaPath, seedPath, dbPath := writeFixtures(t, northwesternSeed)

			cmd := newRootCmd(testConfig(t))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			args := append(tt.args(dbPath), "-s", schemaPath, "-l", seedPath)
			cmd.SetArgs(normalizeArgs(args))

			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if n := countHospitals(t, dbPath); n != 1 {
				t.Errorf("stored %d hospitals at %s, want 1", n, dbPath)
			}
		})
	}
}

func TestInitDB_DefaultsFromConfig(t *testing.T) {
	schemaPath, seedPath, dbPath := writeFixtures(t, northwesternSeed)

	cfg := testConfig(t)
	cfg.Database.URL = dbPath

	cmd := newRootCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-s", schemaPath, "-l", seedPath})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n := countHospitals(t, dbPath); n != 1 {
		t.Errorf("stored %d hospitals at configured path, want 1", n)
	}
}

func TestInitDB_DuplicateSeedIDReportsCode(t *testing.T) {
	seed := `[
		{"id": 1, "name": "a", "city": "c", "state": "s", "address": "a"},
		{"id": 1, "name": "b", "city": "c", "state": "s", "address": "a"}
	]`
	schemaPath, seedPath, dbPath := writeFixtures(t, seed)

	cmd := newRootCmd(testConfig(t))
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--db", dbPath, "-s", schemaPath, "-l", seedPath})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("Execute() with duplicate seed ids error = nil")
	}
	if !strings.Contains(stderr.String(), "Code: DB001") {
		t.Errorf("stderr = %q, want DB001 message", stderr.String())
	}
	if n := countHospitals(t, dbPath); n != 0 {
		t.Errorf("stored %d hospitals after failed seed, want 0", n)
	}
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"single dash db", []string{"-db", "x.db"}, []string{"--db", "x.db"}},
		{"single dash with value", []string{"-db=x.db"}, []string{"--db=x.db"}},
		{"shorthands untouched", []string{"-s", "a.sql", "-l", "b.json"}, []string{"-s", "a.sql", "-l", "b.json"}},
		{"double dash untouched", []string{"--db", "x.db"}, []string{"--db", "x.db"}},
		{"after terminator untouched", []string{"--", "-db"}, []string{"--", "-db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeArgs(tt.in)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("normalizeArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
