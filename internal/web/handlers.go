package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/hospitals/internal/core"
	"github.com/JonMunkholm/hospitals/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// UploadMessage accompanies every upload response.
const UploadMessage = "Any ID values present in conflicting_keys mean the entity's ID already exist in the database so they must be changed before uploading. Any entries in incorrect_format do not have the required minimal data for a hospital upload (id, name, city, state, address) or the data is ill-formatted."

// UploadResponse is the body of POST /hospitals.
type UploadResponse struct {
	ConflictingKeys []int64           `json:"conflicting_keys"`
	IncorrectFormat []json.RawMessage `json:"incorrect_format"`
	Message         string            `json:"message"`
}

// MessageResponse carries a bare informational message.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errInvalidBody  = errors.New("invalid request body")
)

// handleIndex renders the HTML hospital list.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	hospitals, err := s.service.ListHospitals(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	rows := make([]templates.HospitalRow, len(hospitals))
	for i, h := range hospitals {
		rows[i] = templates.HospitalRow{
			ID:      h.ID,
			Name:    h.Name.String,
			City:    h.City.String,
			State:   h.State.String,
			Address: h.Address.String,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.HospitalsPage(rows).Render(r.Context(), w); err != nil {
		slog.Error("render hospitals page", "error", err)
	}
}

// handleHealth pings the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Error:  core.MapError(err).Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleListHospitals returns every hospital ordered by id.
func (s *Server) handleListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := s.service.ListHospitals(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if hospitals == nil {
		hospitals = []core.Hospital{}
	}
	writeJSON(w, http.StatusOK, hospitals)
}

// handleGetHospital returns one hospital. An unknown id is a normal
// response carrying a message, not a 404.
func (s *Server) handleGetHospital(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "hospitalID")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Digits only, so this is an int64 overflow: no row can have it.
		writeJSON(w, http.StatusOK, notFound(raw))
		return
	}

	lookup, err := s.service.GetHospital(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if !lookup.Found {
		writeJSON(w, http.StatusOK, notFound(strconv.FormatInt(id, 10)))
		return
	}
	writeJSON(w, http.StatusOK, lookup.Hospital)
}

func notFound(id string) MessageResponse {
	return MessageResponse{Message: "No hospital with ID = " + id}
}

// handleCreateHospitals ingests a JSON array of hospital records.
// Per-record problems are reported in the body; only an unreadable body
// or a store failure produces a non-200 status.
func (s *Server) handleCreateHospitals(w http.ResponseWriter, r *http.Request) {
	batch, status, err := s.decodeBatch(w, r)
	if err != nil {
		s.respondError(w, r, err, status)
		return
	}

	outcome, err := s.service.Ingest(r.Context(), batch)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		ConflictingKeys: outcome.ConflictingKeys,
		IncorrectFormat: outcome.IncorrectFormat,
		Message:         UploadMessage,
	})
}

// decodeBatch reads the request body as a JSON array, keeping each element
// as its original bytes.
func (s *Server) decodeBatch(w http.ResponseWriter, r *http.Request) ([]json.RawMessage, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, maxErr.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %w", errInvalidBody, err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: expected a JSON array", errInvalidBody)
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return batch, http.StatusOK, nil
}
