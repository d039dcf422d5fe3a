// Package bootstrap creates the hospitals table and loads its initial rows.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/hospitals/internal/core"
	"github.com/JonMunkholm/hospitals/internal/store"
)

// Run applies the schema script and, when seed is non-nil, inserts every
// record of the seed JSON array in one transaction. It returns the number of
// rows seeded. Any failure is fatal; a failed seed leaves no rows behind.
func Run(ctx context.Context, st store.Store, schema io.Reader, seed io.Reader) (int, error) {
	script, err := io.ReadAll(schema)
	if err != nil {
		return 0, fmt.Errorf("read schema: %w", err)
	}
	if err := st.ApplySchema(ctx, string(script)); err != nil {
		return 0, fmt.Errorf("apply schema: %w", err)
	}
	slog.Info("schema applied")

	if seed == nil {
		return 0, nil
	}

	hospitals, err := decodeSeed(seed)
	if err != nil {
		return 0, err
	}
	if err := st.Seed(ctx, hospitals); err != nil {
		return 0, fmt.Errorf("seed hospitals: %w", err)
	}

	slog.Info("seed loaded", "rows", len(hospitals))
	return len(hospitals), nil
}

// RunFiles is Run over file paths. An empty seedPath skips seeding.
func RunFiles(ctx context.Context, st store.Store, schemaPath, seedPath string) (int, error) {
	schema, err := os.Open(schemaPath)
	if err != nil {
		return 0, fmt.Errorf("open schema: %w", err)
	}
	defer schema.Close()

	if seedPath == "" {
		return Run(ctx, st, schema, nil)
	}

	seed, err := os.Open(seedPath)
	if err != nil {
		return 0, fmt.Errorf("open seed: %w", err)
	}
	defer seed.Close()

	return Run(ctx, st, schema, seed)
}

// decodeSeed reads a JSON array of hospitals. Seed rows must pass the same
// shape check as uploaded records.
func decodeSeed(r io.Reader) ([]core.Hospital, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	hospitals := make([]core.Hospital, 0, len(raws))
	for i, raw := range raws {
		h, err := core.ParseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, nil
}
