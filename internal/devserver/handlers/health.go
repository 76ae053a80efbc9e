package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/newscoin/newscoin/pkg/api"
)

// Pinger checks the database connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	db      Pinger
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		db:        db,
		version:   version,
	}
}

// Health обрабатывает GET /health
// Health check endpoint для мониторинга, проверяет доступность базы
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "database ping failed", slog.Any("error", err))
		resp.Status = "unavailable"
		h.sendJSON(w, resp, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}
