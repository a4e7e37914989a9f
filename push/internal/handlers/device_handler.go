package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flowsight-systems/flowsight-stack/common/httputil"
	"github.com/flowsight-systems/flowsight-stack/common/logging"
	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
	"github.com/flowsight-systems/flowsight-stack/push/internal/registry"
)

const (
	msgDatabaseNotConfigured = "Database not configured"
	msgDatabaseFailed        = "Database query failed"
	msgDeviceNotFound        = "Device not found"

	devicesPathPrefix = "/api/v1/devices/"
)

// DeviceHandler serves the device registry and readings-mirror API. The
// registry is optional: with no database configured every endpoint answers
// 501.
type DeviceHandler struct {
	repo   registry.Repository
	logger *logging.Logger
}

func NewDeviceHandler(repo registry.Repository, logger *logging.Logger) *DeviceHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DeviceHandler{repo: repo, logger: logger}
}

// HandleDevices serves GET (list) and POST (create-or-replace) on
// /api/v1/devices.
func (h *DeviceHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listDevices(w, r)
	case http.MethodPost:
		h.upsertDevice(w, r)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

// HandleDevice dispatches the subtree under /api/v1/devices/:
// POST bulk, GET {deviceNo}/stats, PATCH {deviceNo}.
func (h *DeviceHandler) HandleDevice(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, devicesPathPrefix)

	if rest == "bulk" {
		if r.Method != http.MethodPost {
			httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		h.bulkImport(w, r)
		return
	}

	if deviceNo, ok := strings.CutSuffix(rest, "/stats"); ok {
		if r.Method != http.MethodGet {
			httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		h.deviceStats(w, r, deviceNo)
		return
	}

	if r.Method != http.MethodPatch {
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	h.updateDevice(w, r, rest)
}

// HandleLatestReadings serves GET /api/v1/readings/latest?limit=N.
func (h *DeviceHandler) HandleLatestReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	if !h.requireDB(w) {
		return
	}

	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 10)
	readings, err := h.repo.LatestReadings(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "latest readings query failed", logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
		return
	}
	if readings == nil {
		readings = []*models.Reading{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  readings,
		"count": len(readings),
	})
}

func (h *DeviceHandler) listDevices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	devices, err := h.repo.ListDevices(r.Context(), query.Get("search"), query.Get("status"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "device listing failed", logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
		return
	}
	if devices == nil {
		devices = []*models.Device{}
	}

	httputil.WriteJSON(w, http.StatusOK, models.DeviceList{Data: devices, Count: len(devices)})
}

func (h *DeviceHandler) upsertDevice(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeDeviceInput(w, r)
	if !ok {
		return
	}
	if input.DeviceNo == "" {
		httputil.WriteError(w, http.StatusBadRequest, "deviceNo is required")
		return
	}

	result, err := h.repo.UpsertDevice(r.Context(), input)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "device upsert failed",
			logging.Device(input.DeviceNo), logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"msg":        "OK",
		"deviceNo":   result.DeviceNo,
		"created_at": result.CreatedAt,
		"is_new":     result.IsNew,
	})
}

func (h *DeviceHandler) bulkImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Devices []models.DeviceInput `json:"devices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if len(body.Devices) > 0 {
		for _, d := range body.Devices {
			if d.DeviceNo == "" {
				httputil.WriteError(w, http.StatusBadRequest, "deviceNo is required")
				return
			}
		}
		if err := h.repo.BulkUpsertDevices(r.Context(), body.Devices); err != nil {
			h.logger.ErrorContext(r.Context(), "bulk device import failed", logging.Error(err))
			httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"msg":   "OK",
		"count": len(body.Devices),
	})
}

func (h *DeviceHandler) updateDevice(w http.ResponseWriter, r *http.Request, deviceNo string) {
	input, ok := h.decodeDeviceInput(w, r)
	if !ok {
		return
	}

	err := h.repo.UpdateDevice(r.Context(), deviceNo, input)
	if err != nil {
		if errors.Is(err, registry.ErrDeviceNotFound) {
			httputil.WriteError(w, http.StatusNotFound, msgDeviceNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "device update failed",
			logging.Device(deviceNo), logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"msg":      "OK",
		"deviceNo": deviceNo,
	})
}

func (h *DeviceHandler) deviceStats(w http.ResponseWriter, r *http.Request, deviceNo string) {
	stats, err := h.repo.DeviceStats(r.Context(), deviceNo)
	if err != nil {
		if errors.Is(err, registry.ErrDeviceNotFound) {
			httputil.WriteError(w, http.StatusNotFound, msgDeviceNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "device stats query failed",
			logging.Device(deviceNo), logging.Error(err))
		httputil.WriteErrorDetail(w, http.StatusInternalServerError, msgDatabaseFailed, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *DeviceHandler) decodeDeviceInput(w http.ResponseWriter, r *http.Request) (*models.DeviceInput, bool) {
	var input models.DeviceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	return &input, true
}

func (h *DeviceHandler) requireDB(w http.ResponseWriter) bool {
	if h.repo == nil {
		httputil.WriteError(w, http.StatusNotImplemented, msgDatabaseNotConfigured)
		return false
	}
	return true
}
