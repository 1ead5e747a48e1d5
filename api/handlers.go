package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/journal"
	"github.com/kilianp07/raildispatch/core/model"
)

// ErrUnavailable is returned by a Backend that no longer accepts requests.
var ErrUnavailable = errors.New("service unavailable")

// Backend is the train system seen by the API.
type Backend interface {
	Status() dispatch.Status
	Submit(req model.Request) (*model.Passenger, error)
}

// ErrorResponse is the JSON error response structure.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// JournalResponse is the JSON response structure for GET /api/journal.
type JournalResponse struct {
	Records []journal.Record `json:"records"`
	Count   int              `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]any{"reason": err.Error()}
	}
	writeJSON(w, status, resp)
}

// Handler serves the API routes.
type Handler struct {
	backend Backend
	store   journal.Store
}

// NewHandler creates a handler for backend. A nil store disables the journal
// route.
func NewHandler(backend Backend, store journal.Store) *Handler {
	if store == nil {
		store = journal.NopStore{}
	}
	return &Handler{backend: backend, store: store}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Status())
}

// PostRequest handles POST /api/requests.
func (h *Handler) PostRequest(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	p, err := h.backend.Submit(req)
	switch {
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable", err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "request rejected", err)
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

// GetJournal handles GET /api/journal?run_id=&from=&to=&passenger_id=&station=.
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := journal.Query{
		RunID:       params.Get("run_id"),
		PassengerID: params.Get("passenger_id"),
		Station:     params.Get("station"),
	}
	var err error
	if q.FromCycle, err = intParam(params.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err)
		return
	}
	if q.ToCycle, err = intParam(params.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err)
		return
	}
	records, err := h.store.Query(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query journal", err)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, JournalResponse{Records: records, Count: len(records)})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}
