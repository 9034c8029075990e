package web

import (
	"context"
	"net/http"
	"time"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/response"

	"github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type WebHandler struct {
	store   Pinger
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewWebHandler(store Pinger, log logrus.FieldLogger) *WebHandler {
	return &WebHandler{store: store, log: log, timeout: 2 * time.Second}
}

// Health answers 200 while the store responds and 503 otherwise
func (h *WebHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		response.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}
	response.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusNotFound, apperrors.CodeNotFound, "route not found")
}

func (h *WebHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusMethodNotAllowed, apperrors.CodeInvalidArgument, "method not allowed")
}
