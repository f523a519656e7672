package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/delivery/http/response"
	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/usecase"
)

const defaultMaxUploadBytes = 200 << 20

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Deps groups the use cases served over HTTP.
type Deps struct {
	Exporter       usecase.Exporter
	Viewer         usecase.ArchiveViewer
	Remediator     usecase.Remediator
	Catalog        usecase.Catalog
	HealthChecks   map[string]HealthCheck
	MaxUploadBytes int64
}

type Handler struct {
	exporter       usecase.Exporter
	viewer         usecase.ArchiveViewer
	remediator     usecase.Remediator
	catalog        usecase.Catalog
	healthChecks   map[string]HealthCheck
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		exporter:       deps.Exporter,
		viewer:         deps.Viewer,
		remediator:     deps.Remediator,
		catalog:        deps.Catalog,
		healthChecks:   deps.HealthChecks,
		maxUploadBytes: deps.MaxUploadBytes,
		logger:         logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			status[name] = "unhealthy"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "healthy"
	}
	h.writeJSON(w, code, status)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrRecentlyExported):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrRemoteFetchFailed), errors.Is(err, entity.ErrRemoteOperationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError keeps the original message for every status. The request id
// ties a 500 response to its log line.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	requestID := chimw.GetReqID(r.Context())
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.String("request_id", requestID), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	h.writeJSON(w, status, response.ErrorResponse{Error: err.Error(), RequestID: requestID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
