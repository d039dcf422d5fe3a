package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/hospitals/internal/logging"
	"github.com/JonMunkholm/hospitals/internal/store"
	"github.com/google/uuid"
)

// Service provides hospital ingestion and queries over a record store.
type Service struct {
	store store.Store
}

// NewService creates a new Service instance.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Ingest partitions batch into accepted, conflicting and malformed records,
// inserting the shape-valid ones one at a time on a single session. A
// shape-valid record the store cannot hold aborts the batch like any other
// write failure; records inserted before it stay committed.
func (s *Service) Ingest(ctx context.Context, batch []json.RawMessage) (*IngestionOutcome, error) {
	start := time.Now()
	outcome := &IngestionOutcome{
		BatchID:         uuid.New().String(),
		ConflictingKeys: []int64{},
		IncorrectFormat: []json.RawMessage{},
	}
	logger := logging.WithFields(ctx, "batch_id", outcome.BatchID, "records", len(batch))
	ingestBatchSize.Observe(float64(len(batch)))

	sess, err := s.store.Session(ctx)
	if err != nil {
		ingestBatchFailures.Inc()
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	for i, raw := range batch {
		h, err := ParseRecord(raw)
		if errors.Is(err, ErrMalformedRecord) {
			logger.Debug("record rejected", "index", i, "reason", err)
			outcome.IncorrectFormat = append(outcome.IncorrectFormat, raw)
			ingestRecordsTotal.WithLabelValues(outcomeMalformed).Inc()
			continue
		}
		if err != nil {
			ingestBatchFailures.Inc()
			logger.Error("batch aborted", "index", i, "accepted", outcome.Accepted, "error", err)
			return nil, fmt.Errorf("ingest record %d: %w", i, err)
		}

		if err := sess.InsertHospital(ctx, h); err != nil {
			if errors.Is(err, store.ErrDuplicateID) {
				logger.Debug("record conflicts", "index", i, "id", h.ID)
				outcome.ConflictingKeys = append(outcome.ConflictingKeys, h.ID)
				ingestRecordsTotal.WithLabelValues(outcomeConflicting).Inc()
				continue
			}
			ingestBatchFailures.Inc()
			logger.Error("batch aborted",
				"index", i,
				"accepted", outcome.Accepted,
				"error", err,
			)
			return nil, fmt.Errorf("ingest record %d: %w", i, err)
		}

		outcome.Accepted++
		ingestRecordsTotal.WithLabelValues(outcomeAccepted).Inc()
	}

	logger.Info("batch ingested",
		"accepted", outcome.Accepted,
		"conflicting", len(outcome.ConflictingKeys),
		"malformed", len(outcome.IncorrectFormat),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return outcome, nil
}

// ListHospitals returns every hospital ordered by id ascending.
func (s *Service) ListHospitals(ctx context.Context) ([]Hospital, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	hospitals, err := sess.ListHospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	return hospitals, nil
}

// GetHospital looks up one hospital. A missing id is reported through
// Lookup.Found, not as an error.
func (s *Service) GetHospital(ctx context.Context, id int64) (Lookup, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return Lookup{}, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	h, ok, err := sess.GetHospital(ctx, id)
	if err != nil {
		return Lookup{}, fmt.Errorf("get hospital: %w", err)
	}
	return Lookup{Hospital: h, Found: ok}, nil
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}
