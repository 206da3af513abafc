package domain

import "net/netip"

// AdapterKind classifies a network interface by its physical medium
type AdapterKind string

const (
	AdapterKindEthernet AdapterKind = "ethernet"
	AdapterKindWiFi     AdapterKind = "wifi"
	AdapterKindOther    AdapterKind = "other"
)

// NetworkAdapter is a local interface with the IPv4 addresses worth scanning from.
// Built per discovery call and never persisted.
type NetworkAdapter struct {
	Name      string       `json:"name" yaml:"name"`
	Kind      AdapterKind  `json:"kind" yaml:"kind"`
	Connected bool         `json:"connected" yaml:"connected"`
	Addresses []netip.Addr `json:"addresses" yaml:"addresses"`
}

// Segments returns the distinct /24 segments of the adapter's addresses in order
func (a NetworkAdapter) Segments() []Segment {
	seen := make(map[Segment]struct{}, len(a.Addresses))
	var segments []Segment
	for _, addr := range a.Addresses {
		seg, ok := SegmentOf(addr)
		if !ok {
			continue
		}
		if _, dup := seen[seg]; dup {
			continue
		}
		seen[seg] = struct{}{}
		segments = append(segments, seg)
	}
	return segments
}
