package domain

import (
	"net/netip"
	"strconv"
)

// HostProbeResult records which target ports answered on one candidate address
type HostProbeResult struct {
	Address       netip.Addr `json:"address"`
	WebPortOpen   bool       `json:"web_port_open"`
	SynthPortOpen bool       `json:"synth_port_open"`
}

// Live reports whether at least one target port is open
func (r HostProbeResult) Live() bool {
	return r.WebPortOpen || r.SynthPortOpen
}

// Evidence describes how a server was confirmed
type Evidence string

const (
	// EvidenceVoices means the voice listing call returned a non-empty list
	EvidenceVoices Evidence = "voices"
	// EvidenceHTTP means the synth port answered a plain GET with 200
	EvidenceHTTP Evidence = "http"
)

// VerifiedServer is a live host confirmed to speak the speech service protocol.
// At least one of WebPort/SynthPort is always set. Address is the identity.
type VerifiedServer struct {
	Address   netip.Addr `json:"address" yaml:"address"`
	WebPort   *uint16    `json:"web_port,omitempty" yaml:"web_port,omitempty"`
	SynthPort *uint16    `json:"synth_port,omitempty" yaml:"synth_port,omitempty"`
	Evidence  Evidence   `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Voices    []string   `json:"voices,omitempty" yaml:"voices,omitempty"`
}

// NewVerifiedServer builds a server from a probe result, mirroring the open ports
func NewVerifiedServer(result HostProbeResult, ports Ports, evidence Evidence) VerifiedServer {
	s := VerifiedServer{
		Address:  result.Address,
		Evidence: evidence,
	}
	if result.WebPortOpen {
		s.WebPort = PortPtr(ports.Web)
	}
	if result.SynthPortOpen {
		s.SynthPort = PortPtr(ports.Synth)
	}
	return s
}

// Key is the deduplication key
func (s VerifiedServer) Key() string {
	return s.Address.String()
}

// Valid reports whether the server satisfies its invariants
func (s VerifiedServer) Valid() bool {
	return s.Address.Is4() && (s.WebPort != nil || s.SynthPort != nil)
}

// WebURL returns the base URL of the web UI, or "" when the web port is unknown
func (s VerifiedServer) WebURL() string {
	if s.WebPort == nil {
		return ""
	}
	return "http://" + netip.AddrPortFrom(s.Address, *s.WebPort).String() + "/"
}

// SynthURL returns the base URL of the synthesis API, or "" when unknown
func (s VerifiedServer) SynthURL() string {
	if s.SynthPort == nil {
		return ""
	}
	return "http://" + netip.AddrPortFrom(s.Address, *s.SynthPort).String() + "/"
}

// PortPtr returns a pointer to a copy of p
func PortPtr(p uint16) *uint16 {
	return &p
}

// FormatPort renders an optional port, "-" when unset
func FormatPort(p *uint16) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(int(*p))
}

// DedupServers keeps the first occurrence of every address, preserving order
func DedupServers(servers []VerifiedServer) []VerifiedServer {
	seen := make(map[string]struct{}, len(servers))
	out := make([]VerifiedServer, 0, len(servers))
	for _, s := range servers {
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		out = append(out, s)
	}
	return out
}
