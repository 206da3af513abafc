package adapter

import (
	"context"
	"io"
	"net/http"
	"net/netip"

	"github.com/charmbracelet/log"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// ServiceVerifier confirms live hosts in two tiers: the voice listing on the
// web port, then a plain GET on the synth port
type ServiceVerifier struct {
	voices VoiceLister
	http   *http.Client
	logger *log.Logger
}

// NewServiceVerifier creates a verifier. A nil http.Client means http.DefaultClient.
func NewServiceVerifier(voices VoiceLister, httpClient *http.Client, logger *log.Logger) *ServiceVerifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ServiceVerifier{
		voices: voices,
		http:   httpClient,
		logger: logging.Component(logger, "verifier"),
	}
}

// Verify never fails: every protocol error means "not verified".
// Ports and timeout come from cfg, the same configuration the host was scanned
// with; ports in the result mirror the open flags of the probe result.
func (v *ServiceVerifier) Verify(ctx context.Context, host domain.HostProbeResult, cfg domain.ScanConfiguration) (domain.VerifiedServer, bool) {
	cfg = cfg.WithDefaults()

	if host.WebPortOpen && v.voices != nil {
		voices, err := v.listVoices(ctx, host.Address, cfg)
		switch {
		case err != nil:
			v.logger.Debug("Voice listing failed", "address", host.Address, "err", err)
		case len(voices) == 0:
			v.logger.Debug("Voice listing empty", "address", host.Address)
		default:
			server := domain.NewVerifiedServer(host, cfg.Ports, domain.EvidenceVoices)
			server.Voices = voices
			return server, true
		}
	}

	if host.SynthPortOpen {
		if v.synthResponds(ctx, host.Address, cfg) {
			return domain.NewVerifiedServer(host, cfg.Ports, domain.EvidenceHTTP), true
		}
	}

	return domain.VerifiedServer{}, false
}

func (v *ServiceVerifier) listVoices(ctx context.Context, addr netip.Addr, cfg domain.ScanConfiguration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.VerifyTimeout)
	defer cancel()

	return v.voices.ListVoices(ctx, baseURL(addr, cfg.Ports.Web))
}

// synthResponds reports whether GET on the synth port answers 200
func (v *ServiceVerifier) synthResponds(ctx context.Context, addr netip.Addr, cfg domain.ScanConfiguration) bool {
	ctx, cancel := context.WithTimeout(ctx, cfg.VerifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL(addr, cfg.Ports.Synth), nil)
	if err != nil {
		return false
	}

	resp, err := v.http.Do(req)
	if err != nil {
		v.logger.Debug("Synth probe failed", "address", addr, "err", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode == http.StatusOK
}

func baseURL(addr netip.Addr, port uint16) string {
	return "http://" + netip.AddrPortFrom(addr, port).String() + "/"
}
