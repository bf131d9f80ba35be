package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/loglens/loglens/internal/constants"
	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/session"
)

// deviceListTimeout bounds the adb round-trip for GET /devices.
const deviceListTimeout = 10 * time.Second

// Handlers contains all HTTP handlers.
type Handlers struct {
	controller *session.Controller
	adb        session.Adb
	logger     *zap.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(controller *session.Controller, adbMgr session.Adb, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		controller: controller,
		adb:        adbMgr,
		logger:     logger,
	}
}

// StatusResponse represents the response for GET /api/v1/status.
type StatusResponse struct {
	State      string `json:"state"`
	Paused     bool   `json:"paused"`
	Device     string `json:"device,omitempty"`
	Package    string `json:"package,omitempty"`
	Records    int    `json:"records"`
	APIVersion string `json:"api_version"`
}

// LogsResponse represents the response for GET /api/v1/logs.
type LogsResponse struct {
	Records []domain.Record `json:"records"`
	Total   int             `json:"total"`
}

// DevicesResponse represents the response for GET /api/v1/devices.
type DevicesResponse struct {
	Devices []domain.Device `json:"devices"`
}

// PresetsResponse represents the response for GET /api/v1/presets.
type PresetsResponse struct {
	Presets []domain.FilterPreset `json:"presets"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetStatus handles GET /api/v1/status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		State:      h.controller.State().String(),
		Paused:     h.controller.Paused(),
		Device:     h.controller.Device(),
		Package:    h.controller.PackageScope(),
		Records:    len(h.controller.Records()),
		APIVersion: "v1",
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetLogs handles GET /api/v1/logs. The snapshot is the session's filtered
// buffer; ?limit= trims to the newest records.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	if limit > constants.MaxLogLines {
		limit = constants.MaxLogLines
	}

	records := h.controller.Records()
	total := len(records)
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	if records == nil {
		records = []domain.Record{}
	}

	writeJSON(w, http.StatusOK, LogsResponse{Records: records, Total: total})
}

// ExportLogs handles GET /api/v1/logs/export: the filtered buffer's raw
// lines as plain text, newline-joined.
func (h *Handlers) ExportLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.controller.Export()))
}

// GetDevices handles GET /api/v1/devices.
func (h *Handlers) GetDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), deviceListTimeout)
	defer cancel()

	devices, err := h.adb.ListDevices(ctx)
	if err != nil {
		h.logger.Warn("device list failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, http.StatusOK, DevicesResponse{Devices: devices})
}

// GetPresets handles GET /api/v1/presets.
func (h *Handlers) GetPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.controller.Presets()
	if presets == nil {
		presets = []domain.FilterPreset{}
	}
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: presets})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
