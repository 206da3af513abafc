package netinfo

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"voicescout/internal/domain"
)

// Segments derives the distinct segments of connected adapters, in first-seen order
func Segments(adapters []domain.NetworkAdapter) []domain.Segment {
	seen := make(map[domain.Segment]struct{})
	var out []domain.Segment
	for _, a := range adapters {
		if !a.Connected {
			continue
		}
		for _, seg := range a.Segments() {
			if _, ok := seen[seg]; ok {
				continue
			}
			seen[seg] = struct{}{}
			out = append(out, seg)
		}
	}
	return out
}

// PrimarySegment picks the segment a user most likely means by "my network":
// the first Ethernet adapter, then the first WiFi adapter, then anything.
func PrimarySegment(adapters []domain.NetworkAdapter) (domain.Segment, bool) {
	for _, kind := range []domain.AdapterKind{domain.AdapterKindEthernet, domain.AdapterKindWiFi, ""} {
		for _, a := range adapters {
			if !a.Connected || (kind != "" && a.Kind != kind) {
				continue
			}
			if segs := a.Segments(); len(segs) > 0 {
				return segs[0], true
			}
		}
	}
	return "", false
}

// OutboundIPv4 returns the local address the OS would route public traffic from.
// UDP "dial" does not send packets; it only asks the kernel for a route.
func OutboundIPv4(ctx context.Context) (netip.Addr, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", "8.8.8.8:53")
	if err != nil {
		return netip.Addr{}, fmt.Errorf("route lookup: %w", err)
	}
	defer conn.Close()

	udp, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	addr, ok := netip.AddrFromSlice(udp.IP.To4())
	if !ok {
		return netip.Addr{}, fmt.Errorf("no IPv4 local address")
	}
	return addr, nil
}
