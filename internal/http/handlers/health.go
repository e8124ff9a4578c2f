package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/t5fueling/t5fueling-web/internal/notify"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

const defaultProbeTimeout = 5 * time.Second

// QuotaReporter reads the email provider's sending quota.
type QuotaReporter interface {
	Quota(ctx context.Context) (notify.SendQuota, error)
}

// SubmissionCounter counts stored lead submissions.
type SubmissionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves liveness and dependency probes.
type HealthHandler struct {
	counter  SubmissionCounter
	quota    QuotaReporter
	provider string
	timeout  time.Duration
	logger   *logging.Logger
}

// NewHealthHandler builds the probe handler. quota may be nil when the
// configured provider cannot report one.
func NewHealthHandler(counter SubmissionCounter, quota QuotaReporter, provider string, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{
		counter:  counter,
		quota:    quota,
		provider: provider,
		timeout:  defaultProbeTimeout,
		logger:   logger,
	}
}

type emailHealthResponse struct {
	Status   string            `json:"status"`
	Provider string            `json:"provider,omitempty"`
	Quota    *notify.SendQuota `json:"quota,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type databaseProbeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EmailHealth handles GET /api/health/ses. It reports the SES send quota
// or 503 when the provider cannot be reached.
func (h *HealthHandler) EmailHealth(w http.ResponseWriter, r *http.Request) {
	if h.quota == nil {
		writeJSON(w, http.StatusOK, emailHealthResponse{Status: "healthy", Provider: h.provider})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	quota, err := h.quota.Quota(ctx)
	if err != nil {
		h.logger.Error("email health check failed", "error", err, "provider", h.provider)
		writeJSON(w, http.StatusServiceUnavailable, emailHealthResponse{Status: "unhealthy", Provider: h.provider, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, emailHealthResponse{Status: "healthy", Provider: h.provider, Quota: &quota})
}

// DatabaseProbe handles GET /api/health/db. It counts lead submissions to
// prove the store is reachable.
func (h *HealthHandler) DatabaseProbe(w http.ResponseWriter, r *http.Request) {
	if h.counter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	count, err := h.counter.Count(ctx)
	if err != nil {
		h.logger.Error("database probe failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Database connection failed",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, databaseProbeResponse{Success: true, Message: "Database connection successful", Count: count})
}
