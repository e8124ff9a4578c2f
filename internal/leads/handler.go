package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/t5fueling/t5fueling-web/internal/observability/metrics"
	"github.com/t5fueling/t5fueling-web/internal/ratelimit"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

var leadsTracer = otel.Tracer("t5fueling.internal.leads")

const (
	// DefaultHoneypotDelay is how long a bot submission is held before the
	// fake success response is sent.
	DefaultHoneypotDelay = 1500 * time.Millisecond
	// DefaultNotifyTimeout bounds the notification step including retries.
	DefaultNotifyTimeout = 30 * time.Second

	maxBodyBytes = 1 << 20
)

const (
	msgInvalidBody  = "Invalid request body."
	msgRateLimited  = "Too many submissions. Please try again later."
	msgStoreFailure = "Failed to store lead submission."
)

// Handler handles HTTP requests for lead submissions
type Handler struct {
	repo          Repository
	limiter       ratelimit.Limiter
	notifier      Notifier
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
	honeypotDelay time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration)
}

// NewHandler creates a new leads handler. notifier may be nil, in which
// case stored submissions are not announced.
func NewHandler(repo Repository, limiter ratelimit.Limiter, notifier Notifier, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("leads: repository required")
	}
	if limiter == nil {
		panic("leads: rate limiter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:          repo,
		limiter:       limiter,
		notifier:      notifier,
		logger:        logger,
		honeypotDelay: DefaultHoneypotDelay,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
		sleep:         sleepContext,
	}
}

// WithMetrics records submission outcomes on m.
func (h *Handler) WithMetrics(m *metrics.LeadMetrics) *Handler {
	h.metrics = m
	return h
}

// WithHoneypotDelay overrides DefaultHoneypotDelay. Zero disables the delay.
func (h *Handler) WithHoneypotDelay(d time.Duration) *Handler {
	if d >= 0 {
		h.honeypotDelay = d
	}
	return h
}

// WithNotifyTimeout overrides DefaultNotifyTimeout.
func (h *Handler) WithNotifyTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.notifyTimeout = d
	}
	return h
}

type createResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type rateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// CreateSubmission handles POST /leads. The stages run in a fixed order:
// decode, rate limit, honeypot, validate, store, notify. A failed
// notification never changes the response once the row is stored.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	ctx, span := leadsTracer.Start(r.Context(), "leads.create_submission")
	defer span.End()

	outcome := h.createSubmission(ctx, span, w, r)
	span.SetAttributes(attribute.String("t5.outcome", outcome))
	h.metrics.ObserveSubmission(outcome, h.now().Sub(start).Seconds())
}

func (h *Handler) createSubmission(ctx context.Context, span trace.Span, w http.ResponseWriter, r *http.Request) string {
	var req CreateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("leads: failed to decode request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return metrics.OutcomeMalformed
	}

	identifier := ratelimit.ClientIdentifier(r)
	decision := h.limiter.Check(ctx, identifier)
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		retryAfter := int(decision.RetryAfter(h.now()) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.logger.Warn("leads: submission rate limited", "identifier", identifier, "retry_after_s", retryAfter)
		writeJSON(w, http.StatusTooManyRequests, rateLimitedResponse{Error: msgRateLimited, RetryAfter: retryAfter})
		return metrics.OutcomeRateLimited
	}

	req.Normalize()
	if req.IsSpam() {
		h.logger.Info("leads: honeypot triggered, discarding submission", "identifier", identifier)
		h.sleep(ctx, h.honeypotDelay)
		writeJSON(w, http.StatusCreated, createResponse{Success: true, ID: uuid.New().String()})
		return metrics.OutcomeHoneypot
	}

	if errs := ValidateSubmission(&req); len(errs) > 0 {
		h.logger.Info("leads: submission failed validation", "identifier", identifier, "fields", errs.Map())
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errs.Summary(), Fields: errs.Map()})
		return metrics.OutcomeInvalid
	}

	sub, err := h.repo.Create(ctx, &req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Fields.Summary(), Fields: verr.Fields.Map()})
			return metrics.OutcomeInvalid
		}
		recordSpanError(span, err)
		h.logger.Error("leads: failed to store submission", "error", err, "identifier", identifier)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgStoreFailure})
		return metrics.OutcomeStoreError
	}
	span.SetAttributes(attribute.String("t5.lead_id", sub.ID), attribute.String("t5.service_type", sub.ServiceType))
	h.logger.Info("leads: submission stored", "id", sub.ID, "service_type", sub.ServiceType)

	h.notify(ctx, sub)

	writeJSON(w, http.StatusCreated, createResponse{Success: true, ID: sub.ID})
	return metrics.OutcomeCreated
}

// notify runs the notification detached from the request so a client
// disconnect cannot abort delivery of an already stored lead.
func (h *Handler) notify(ctx context.Context, sub *Submission) {
	if h.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.notifyTimeout)
	defer cancel()

	result := h.notifier.NotifyNewSubmission(notifyCtx, sub)
	h.metrics.ObserveNotification(result.Provider, result.Attempts, result.Delivered())
	if !result.Delivered() {
		h.logger.Error("leads: notification failed", "id", sub.ID, "attempts", result.Attempts, "error", result.Err)
		return
	}
	h.logger.Info("leads: notification sent", "id", sub.ID, "attempts", result.Attempts)
}

// ValidateSubmission handles POST /leads/validate. It runs only the field
// rules and never touches the rate limiter, store, or notifier.
func (h *Handler) ValidateSubmission(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}
	if errs := ValidateSubmission(&req); len(errs) > 0 {
		writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: errs.Summary(), Fields: errs.Map()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true})
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
