package adapter

import (
	"context"
	"net"
	"net/netip"
	"time"
)

// TCPProber probes ports with a plain TCP connect
type TCPProber struct{}

// NewTCPProber creates a TCP connect prober
func NewTCPProber() *TCPProber {
	return &TCPProber{}
}

// IsOpen dials addr:port and immediately closes the connection
func (p *TCPProber) IsOpen(ctx context.Context, addr netip.Addr, port uint16, timeout time.Duration) bool {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", netip.AddrPortFrom(addr, port).String())
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
