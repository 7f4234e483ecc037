package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/utils"
)

const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether the service can answer queries.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db *sql.DB
}

func NewHealthchecker(db *sql.DB) healthchecker {
	return &healthcheckerImpl{db: db}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteStatus(w, http.StatusOK, "ok")
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			utils.WriteStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		utils.WriteStatus(w, http.StatusOK, "ready")
	}
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB) {
	healthchecker := NewHealthchecker(db)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}

// RegisterReadiness mounts GET /readyz backed by checker.
func RegisterReadiness(mux *http.ServeMux, checker ReadinessChecker) {
	mux.HandleFunc("GET /readyz", handleReady(checker))
}
