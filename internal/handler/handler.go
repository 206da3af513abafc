package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"voicescout/internal/codec"
	"voicescout/internal/domain"
	"voicescout/internal/logging"
	"voicescout/internal/repository"
	"voicescout/internal/service"
)

// DefaultRunLimit is how many runs GET /api/runs returns without ?limit
const DefaultRunLimit = 20

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Running bool   `json:"discovery_running"`
}

// VerifyResponse is the body of POST /api/verify/{address}
type VerifyResponse struct {
	Address  string                 `json:"address"`
	Verified bool                   `json:"verified"`
	Server   *domain.VerifiedServer `json:"server,omitempty"`
}

// DiscoveryHandler serves the discovery API
type DiscoveryHandler struct {
	catalog *service.ServerCatalog
	logger  *log.Logger
	started time.Time
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(catalog *service.ServerCatalog, logger *log.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		catalog: catalog,
		logger:  logging.Component(logger, "http"),
		started: time.Now(),
	}
}

// Register mounts every route on mux
func (h *DiscoveryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/discover", h.Discover)
	mux.HandleFunc("GET /api/plan", h.GetPlan)
	mux.HandleFunc("GET /api/adapters", h.ListAdapters)
	mux.HandleFunc("GET /api/servers", h.ListServers)
	mux.HandleFunc("DELETE /api/servers/{address}", h.ForgetServer)
	mux.HandleFunc("POST /api/verify/{address}", h.VerifyServer)
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
}

// Health reports liveness
func (h *DiscoveryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Running: h.catalog.Running(),
	}, http.StatusOK)
}

// Discover runs one discovery call. ?fast=true enables fast mode.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	fast, err := parseBool(r.URL.Query().Get("fast"))
	if err != nil {
		writeError(w, "Invalid fast parameter", err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.catalog.Refresh(r.Context(), fast)
	if errors.Is(err, service.ErrDiscoveryRunning) {
		writeError(w, "Discovery already running", "", http.StatusConflict)
		return
	}
	writeJSON(w, report, http.StatusOK)
}

// GetPlan returns the scan plan a full discovery would use now
func (h *DiscoveryHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.catalog.Discovery().Plan(h.catalog.Config()), http.StatusOK)
}

// ListAdapters returns the local adapters discovery scans from
func (h *DiscoveryHandler) ListAdapters(w http.ResponseWriter, r *http.Request) {
	adapters := h.catalog.Discovery().Adapters()
	if adapters == nil {
		adapters = []domain.NetworkAdapter{}
	}
	writeJSON(w, adapters, http.StatusOK)
}

// ListServers returns every remembered server
func (h *DiscoveryHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.catalog.Servers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list servers", "err", err)
		writeError(w, "Failed to list servers", err.Error(), http.StatusInternalServerError)
		return
	}
	if servers == nil {
		servers = []repository.StoredServer{}
	}
	writeJSON(w, servers, http.StatusOK)
}

// ForgetServer removes a remembered server
func (h *DiscoveryHandler) ForgetServer(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	if err := h.catalog.Forget(r.Context(), address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", address, http.StatusNotFound)
			return
		}
		if errors.Is(err, service.ErrInvalidAddress) {
			writeError(w, "Invalid address", err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to forget server", "address", address, "err", err)
		writeError(w, "Failed to forget server", err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyServer probes and verifies one address
func (h *DiscoveryHandler) VerifyServer(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	server, ok, err := h.catalog.Verify(r.Context(), address)
	if err != nil {
		writeError(w, "Invalid address", err.Error(), http.StatusBadRequest)
		return
	}

	resp := VerifyResponse{Address: address, Verified: ok}
	if ok {
		resp.Server = &server
	}
	writeJSON(w, resp, http.StatusOK)
}

// ListRuns returns recent discovery runs, newest first. ?limit=0 returns all.
func (h *DiscoveryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, "Invalid limit", raw, http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.catalog.Runs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", "err", err)
		writeError(w, "Failed to list runs", err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []repository.RunRecord{}
	}
	writeJSON(w, runs, http.StatusOK)
}

var exportContentTypes = map[string]string{
	"json":  "application/json",
	"yaml":  "application/x-yaml",
	"table": "text/plain; charset=utf-8",
}

// Export renders the remembered servers with a codec
func (h *DiscoveryHandler) Export(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, "Unknown format", err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := h.catalog.Servers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list servers", "err", err)
		writeError(w, "Failed to list servers", err.Error(), http.StatusInternalServerError)
		return
	}
	servers := make([]domain.VerifiedServer, len(stored))
	for i, s := range stored {
		servers[i] = s.VerifiedServer
	}

	w.Header().Set("Content-Type", exportContentTypes[exporter.Format()])
	if err := exporter.Export(servers, w); err != nil {
		h.logger.Error("Failed to export servers", "format", exporter.Format(), "err", err)
	}
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode JSON", "err", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
