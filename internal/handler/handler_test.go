package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"voicescout/internal/adapter"
	"voicescout/internal/domain"
	"voicescout/internal/repository/sqlite"
	"voicescout/internal/service"
)

type staticInspector []domain.NetworkAdapter

func (s staticInspector) ListAdapters() []domain.NetworkAdapter { return s }

// webScanner reports the web port open on the listed addresses
type webScanner map[netip.Addr]bool

func (s webScanner) Name() string { return "fake" }

func (s webScanner) Scan(ctx context.Context, addrs []netip.Addr, cfg domain.ScanConfiguration) []domain.HostProbeResult {
	var out []domain.HostProbeResult
	for _, a := range addrs {
		if s[a] {
			out = append(out, domain.HostProbeResult{Address: a, WebPortOpen: true})
		}
	}
	return out
}

type acceptAll struct{}

func (acceptAll) Verify(ctx context.Context, host domain.HostProbeResult, cfg domain.ScanConfiguration) (domain.VerifiedServer, bool) {
	return domain.NewVerifiedServer(host, cfg.WithDefaults().Ports, domain.EvidenceVoices), true
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestServerWith(t, acceptAll{})
}

func newTestServerWith(t *testing.T, verifier adapter.Verifier) http.Handler {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	discovery := service.NewDiscovery(service.Deps{
		Inspector: staticInspector{{
			Name:      "eth0",
			Kind:      domain.AdapterKindEthernet,
			Connected: true,
			Addresses: []netip.Addr{netip.MustParseAddr("192.168.1.20")},
		}},
		Scanner:  webScanner{netip.MustParseAddr("192.168.1.50"): true},
		Verifier: verifier,
	})
	catalog := service.NewServerCatalog(discovery, store, service.NewEventBus(), service.CatalogConfig{}, nil)

	mux := http.NewServeMux()
	NewDiscoveryHandler(catalog, nil).Register(mux)
	return Chain(mux, Recover(nil), CORS, SecurityHeaders, RequestLogger(nil))
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestDiscoverThenListServers(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/discover?fast=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("discover status = %d, body %s", rec.Code, rec.Body)
	}
	report := decode[map[string]any](t, rec)
	servers, _ := report["servers"].([]any)
	if len(servers) != 1 {
		t.Fatalf("report servers = %v, want one", report["servers"])
	}

	rec = do(t, h, http.MethodGet, "/api/servers")
	if rec.Code != http.StatusOK {
		t.Fatalf("servers status = %d", rec.Code)
	}
	stored := decode[[]map[string]any](t, rec)
	if len(stored) != 1 || stored[0]["address"] != "192.168.1.50" {
		t.Errorf("stored = %v, want 192.168.1.50", stored)
	}

	rec = do(t, h, http.MethodGet, "/api/runs")
	if runs := decode[[]map[string]any](t, rec); len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestDiscover_InvalidFast(t *testing.T) {
	h := newTestServer(t)
	if rec := do(t, h, http.MethodPost, "/api/discover?fast=maybe"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// holdVerifier blocks verification until release is closed
type holdVerifier struct {
	entered chan struct{}
	release chan struct{}
}

func (v holdVerifier) Verify(ctx context.Context, host domain.HostProbeResult, cfg domain.ScanConfiguration) (domain.VerifiedServer, bool) {
	select {
	case v.entered <- struct{}{}:
	default:
	}
	<-v.release
	return acceptAll{}.Verify(ctx, host, cfg)
}

func TestDiscover_ConflictWhileRunning(t *testing.T) {
	hold := holdVerifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newTestServerWith(t, hold)

	first := make(chan int, 1)
	go func() {
		first <- do(t, h, http.MethodPost, "/api/discover").Code
	}()

	select {
	case <-hold.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first discovery never reached verification")
	}

	if rec := do(t, h, http.MethodPost, "/api/discover"); rec.Code != http.StatusConflict {
		t.Errorf("concurrent discover status = %d, want 409", rec.Code)
	}
	health := decode[map[string]any](t, do(t, h, http.MethodGet, "/healthz"))
	if health["discovery_running"] != true {
		t.Errorf("discovery_running = %v, want true", health["discovery_running"])
	}

	close(hold.release)
	if code := <-first; code != http.StatusOK {
		t.Errorf("first discover status = %d, want 200", code)
	}
}

func TestForgetServer(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/discover")

	tests := []struct {
		name    string
		address string
		want    int
	}{
		{"remembered", "192.168.1.50", http.StatusNoContent},
		{"already forgotten", "192.168.1.50", http.StatusNotFound},
		{"invalid", "not-an-ip", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodDelete, "/api/servers/"+tt.address)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetPlanAndAdapters(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/plan")
	if rec.Code != http.StatusOK {
		t.Fatalf("plan status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"192.168.1"`) {
		t.Errorf("plan body missing segment: %s", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/adapters")
	adapters := decode[[]domain.NetworkAdapter](t, rec)
	if len(adapters) != 1 || adapters[0].Name != "eth0" {
		t.Errorf("adapters = %+v, want eth0", adapters)
	}
}

func TestVerifyServer(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/verify/192.168.1.50")
	resp := decode[VerifyResponse](t, rec)
	if !resp.Verified || resp.Server == nil {
		t.Errorf("verify = %+v, want verified", resp)
	}

	rec = do(t, h, http.MethodPost, "/api/verify/192.168.1.51")
	if resp := decode[VerifyResponse](t, rec); resp.Verified {
		t.Error("closed host should not verify")
	}

	if rec := do(t, h, http.MethodPost, "/api/verify/bogus"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/discover")

	rec := do(t, h, http.MethodGet, "/api/export/yaml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "address: 192.168.1.50") {
		t.Errorf("yaml body = %s", rec.Body)
	}

	if rec := do(t, h, http.MethodGet, "/api/export/xml"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListRuns_InvalidLimit(t *testing.T) {
	h := newTestServer(t)
	if rec := do(t, h, http.MethodGet, "/api/runs?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthAndMiddleware(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz")
	health := decode[HealthResponse](t, rec)
	if health.Status != "ok" || health.Running {
		t.Errorf("health = %+v", health)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}

	if rec := do(t, h, http.MethodOptions, "/api/servers"); rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(nil))

	rec := do(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
