package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"berlin-airquality/internal/modules/airquality/types"
	"berlin-airquality/internal/utils"
)

// DatasetState reports the snapshot currently served, nil until the first
// successful load.
type DatasetState interface {
	Loaded() *types.Snapshot
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
	handleReadyz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db      *sql.DB
	dataset DatasetState
}

func NewHealthchecker(db *sql.DB, dataset DatasetState) healthchecker {
	return &healthcheckerImpl{db: db, dataset: dataset}
}

func (h *healthcheckerImpl) pingStore(r *http.Request) error {
	var ok int
	return h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok)
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pingStore(r); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz answers 503 until the dataset has been mirrored into the store.
func (h *healthcheckerImpl) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.pingStore(r); err != nil {
		slog.Warn("readiness: store unreachable", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	var snap *types.Snapshot
	if h.dataset != nil {
		snap = h.dataset.Loaded()
	}
	if snap == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"dataset": snap,
	})
}

// NewMux returns a mux carrying the liveness probe. Features add their
// routes to it.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	healthchecker := NewHealthchecker(db, nil)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
	return mux
}

// RegisterReadiness adds /readyz, which reports ready once dataset has a
// loaded snapshot.
func RegisterReadiness(mux *http.ServeMux, db *sql.DB, dataset DatasetState) {
	healthchecker := NewHealthchecker(db, dataset)
	mux.HandleFunc("GET /readyz", healthchecker.handleReadyz)
}
