package domain

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Segment is the first three octets of an IPv4 /24, e.g. "192.168.1"
type Segment string

// ParseSegment validates a segment string: exactly three numeric octets in [0,255]
func ParseSegment(s string) (Segment, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("segment %q: want 3 octets, got %d", s, len(parts))
	}
	octets := make([]string, 3)
	for i, p := range parts {
		if p == "" || len(p) > 3 {
			return "", fmt.Errorf("segment %q: invalid octet %q", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return "", fmt.Errorf("segment %q: invalid octet %q", s, p)
		}
		octets[i] = strconv.Itoa(n)
	}
	return Segment(strings.Join(octets, ".")), nil
}

// MustSegment is ParseSegment for constants and tests
func MustSegment(s string) Segment {
	seg, err := ParseSegment(s)
	if err != nil {
		panic(err)
	}
	return seg
}

// SegmentOf returns the segment containing an IPv4 address
func SegmentOf(addr netip.Addr) (Segment, bool) {
	if !addr.Is4() {
		return "", false
	}
	b := addr.As4()
	return Segment(fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])), true
}

// Octets returns the three numeric octets. The zero value yields zeros.
func (s Segment) Octets() [3]byte {
	var out [3]byte
	parts := strings.Split(string(s), ".")
	if len(parts) != 3 {
		return out
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return [3]byte{}
		}
		out[i] = byte(n)
	}
	return out
}

// Addr builds the IPv4 address with the given last octet inside the segment
func (s Segment) Addr(last uint8) netip.Addr {
	o := s.Octets()
	return netip.AddrFrom4([4]byte{o[0], o[1], o[2], last})
}

// Less orders segments numerically rather than lexically
func (s Segment) Less(other Segment) bool {
	a, b := s.Octets(), other.Octets()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String implements fmt.Stringer
func (s Segment) String() string {
	return string(s)
}

// Category is the scanning priority bucket of a segment
type Category string

const (
	CategoryHigh    Category = "high"
	CategoryMedium  Category = "medium"
	CategoryLow     Category = "low"
	CategorySpecial Category = "special"
)

// Rank orders categories for planning; higher scans first
func (c Category) Rank() int {
	switch c {
	case CategoryHigh:
		return 3
	case CategoryMedium:
		return 2
	case CategoryLow:
		return 1
	default:
		return 0
	}
}

// ScanMode decides how much of a segment gets probed
type ScanMode string

const (
	ScanModeFull   ScanMode = "full"   // octets 1-254
	ScanModeFast   ScanMode = "fast"   // a handful of likely octets
	ScanModeSkip   ScanMode = "skip"   // excluded by default
	ScanModeIgnore ScanMode = "ignore" // never scanned
)

// Scans reports whether the mode produces any addresses
func (m ScanMode) Scans() bool {
	return m == ScanModeFull || m == ScanModeFast
}

// SegmentClassification is the result of classifying a segment
type SegmentClassification struct {
	Category Category `json:"category" yaml:"category"`
	Mode     ScanMode `json:"mode" yaml:"mode"`
	Reason   string   `json:"reason" yaml:"reason"`
}

// OctetRange is an inclusive range of last octets
type OctetRange struct {
	Start uint8 `json:"start" yaml:"start"`
	End   uint8 `json:"end" yaml:"end"`
}

// Count returns the number of octets in the range
func (r OctetRange) Count() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}

// ScanTarget is one planned segment with the octet ranges to probe
type ScanTarget struct {
	Segment        Segment               `json:"segment" yaml:"segment"`
	Ranges         []OctetRange          `json:"ranges" yaml:"ranges"`
	Mode           ScanMode              `json:"mode" yaml:"mode"`
	Classification SegmentClassification `json:"classification" yaml:"classification"`
}

// Count returns how many addresses the target covers.
// Network (.0) and broadcast (.255) octets are never counted.
func (t ScanTarget) Count() int {
	return len(t.Addresses())
}

// Addresses expands the target into concrete IPv4 addresses in range order
func (t ScanTarget) Addresses() []netip.Addr {
	var addrs []netip.Addr
	for _, r := range t.Ranges {
		for o := int(r.Start); o <= int(r.End); o++ {
			if o == 0 || o == 255 {
				continue
			}
			addrs = append(addrs, t.Segment.Addr(uint8(o)))
		}
	}
	return addrs
}
