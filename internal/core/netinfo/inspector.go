// Package netinfo enumerates local network adapters and the segments they sit on.
package netinfo

import (
	"net"
	"net/netip"
	"strings"

	"github.com/charmbracelet/log"

	"voicescout/internal/domain"
	"voicescout/internal/logging"
)

// Inspector lists the local adapters worth scanning from.
// An empty result means "no discoverable network", never an error.
type Inspector interface {
	ListAdapters() []domain.NetworkAdapter
}

// Interface is the subset of an OS interface the inspector needs
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.Addr
}

// InterfaceSource returns the OS interface table
type InterfaceSource func() ([]Interface, error)

// SystemInterfaces reads the interface table through net.Interfaces
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			// One broken interface should not hide the others
			addrs = nil
		}
		out = append(out, Interface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Addrs:    addrs,
		})
	}
	return out, nil
}

// SystemInspector implements Inspector on top of an InterfaceSource
type SystemInspector struct {
	source InterfaceSource
	logger *log.Logger
}

// NewSystemInspector creates an inspector over the real interface table
func NewSystemInspector(logger *log.Logger) *SystemInspector {
	return NewInspector(SystemInterfaces, logger)
}

// NewInspector creates an inspector over an arbitrary interface source
func NewInspector(source InterfaceSource, logger *log.Logger) *SystemInspector {
	return &SystemInspector{
		source: source,
		logger: logging.Component(logger, "netinfo"),
	}
}

// ListAdapters returns adapters that have at least one qualifying IPv4 address
func (s *SystemInspector) ListAdapters() []domain.NetworkAdapter {
	ifaces, err := s.source()
	if err != nil {
		s.logger.Warn("Interface enumeration failed", "err", err)
		return nil
	}

	var adapters []domain.NetworkAdapter
	for _, iface := range ifaces {
		if iface.Loopback {
			continue
		}

		var addrs []netip.Addr
		for _, a := range iface.Addrs {
			addr, ok := ipv4Of(a)
			if !ok || !Qualifies(addr) {
				continue
			}
			addrs = append(addrs, addr)
		}
		if len(addrs) == 0 {
			continue
		}

		adapter := domain.NetworkAdapter{
			Name:      iface.Name,
			Kind:      ClassifyKind(iface.Name),
			Connected: iface.Up,
			Addresses: addrs,
		}
		s.logger.Debug("Found adapter", "name", adapter.Name, "kind", adapter.Kind,
			"connected", adapter.Connected, "addresses", adapter.Addresses)
		adapters = append(adapters, adapter)
	}

	s.logger.Debug("Adapter enumeration complete", "count", len(adapters))
	return adapters
}

// Qualifies reports whether an address is worth deriving a segment from:
// IPv4, not loopback (127/8), not link-local autoconfig (169.254/16), not 0.0.0.0.
func Qualifies(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	b := addr.As4()
	switch {
	case b[0] == 127:
		return false
	case b[0] == 169 && b[1] == 254:
		return false
	case addr.IsUnspecified():
		return false
	}
	return true
}

func ipv4Of(a net.Addr) (netip.Addr, bool) {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	default:
		return netip.Addr{}, false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(ip4)
	return addr, ok
}

var (
	wifiKeywords     = []string{"wi-fi", "wifi", "wireless", "wlan", "wlp", "802.11", "airport"}
	ethernetKeywords = []string{"ethernet", "local area connection", "lan", "eth", "enp", "eno", "ens"}
)

// ClassifyKind guesses the medium from the interface name. WiFi wins over
// Ethernet so that "wlan0" is not caught by the "lan" keyword.
func ClassifyKind(name string) domain.AdapterKind {
	lower := strings.ToLower(name)
	for _, kw := range wifiKeywords {
		if strings.Contains(lower, kw) {
			return domain.AdapterKindWiFi
		}
	}
	for _, kw := range ethernetKeywords {
		if strings.Contains(lower, kw) {
			return domain.AdapterKindEthernet
		}
	}
	return domain.AdapterKindOther
}
