// Package handlers wires the push service's HTTP surface: the two ingestion
// endpoints, the record listing, the device registry API, and the
// health/readiness probes.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/flowsight-systems/flowsight-stack/common/httputil"
	"github.com/flowsight-systems/flowsight-stack/common/logging"
	"github.com/flowsight-systems/flowsight-stack/push/internal/decode"
	"github.com/flowsight-systems/flowsight-stack/push/internal/metrics"
	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
	"github.com/flowsight-systems/flowsight-stack/push/internal/ratelimit"
	"github.com/flowsight-systems/flowsight-stack/push/internal/service"
)

// Stable error messages of the push API. Tests and clients match on these.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidJSON      = "Invalid JSON"
	msgStoreUnavailable = "Blob store unavailable"
	msgRateLimited      = "Rate limit exceeded"
	msgBodyUnreadable   = "Unable to read request body"
)

type PushHandler struct {
	service      *service.PushService
	decoder      *decode.Chain
	limiter      ratelimit.RateLimiter
	logger       *logging.Logger
	maxBodyBytes int64
}

func NewPushHandler(svc *service.PushService, limiter ratelimit.RateLimiter, maxBodyBytes int64, logger *logging.Logger) *PushHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PushHandler{
		service:      svc,
		decoder:      decode.Default(),
		limiter:      limiter,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandlePush is the strict ingestion endpoint: the body must be valid JSON
// regardless of its declared content type. Anything else is a client error
// and nothing is stored.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	if !h.allow(w, r) {
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.PushesTotal.WithLabelValues("strict", "invalid").Inc()
		httputil.WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	h.ingest(w, r, payload, "strict", len(body))
}

// HandlePushRaw is the tolerant ingestion endpoint: the decode chain absorbs
// any body, so every POST that clears the rate limiter reaches the store.
func (h *PushHandler) HandlePushRaw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	if !h.allow(w, r) {
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	payload, decoderName := h.decoder.Decode(r.Header.Get("Content-Type"), body)
	metrics.DecodeFallbacksTotal.WithLabelValues(decoderName).Inc()
	h.logger.DebugContext(r.Context(), "payload decoded", logging.Decoder(decoderName))

	h.ingest(w, r, payload, "tolerant", len(body))
}

// HandleRecords serves the read-back listing of recently stored records.
func (h *PushHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	list, err := h.service.ListRecords(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "record listing failed", logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgStoreUnavailable, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *PushHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *PushHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"stats":  h.service.GetStats(),
	})
}

// allow checks the per-IP rate limit. Limiter errors fail open: a broken
// redis must not stop meters from reporting.
func (h *PushHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	ip := httputil.GetClientIP(r)
	allowed, err := h.limiter.Allow(r.Context(), ip)
	if err != nil {
		h.logger.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
			logging.IP(ip), logging.Error(err))
		return true
	}
	if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, msgRateLimited)
		return false
	}
	return true
}

func (h *PushHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, msgBodyUnreadable)
		return nil, false
	}
	defer r.Body.Close()
	return body, true
}

// ingest runs the shared downstream pipeline for both ingestion variants.
func (h *PushHandler) ingest(w http.ResponseWriter, r *http.Request, payload any, endpoint string, size int) {
	origin := httputil.GetClientIP(r)

	_, err := h.service.Ingest(r.Context(), payload, origin)
	if err != nil {
		metrics.PushesTotal.WithLabelValues(endpoint, "error").Inc()
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgStoreUnavailable, err.Error())
		return
	}

	metrics.PushesTotal.WithLabelValues(endpoint, "stored").Inc()
	metrics.PushBytesTotal.Add(float64(size))

	httputil.WriteJSON(w, http.StatusOK, models.PushResponse{OK: true})
}
