// Package planner decides which local segments are worth scanning and how much of each.
package planner

import "voicescout/internal/domain"

// Tunables. The exact values are heuristics, not contracts.
var (
	// FullRanges covers every host octet of a /24
	FullRanges = []domain.OctetRange{{Start: 1, End: 254}}

	// FastRanges covers the octets routers and DHCP pools hand out first
	FastRanges = []domain.OctetRange{{Start: 1, End: 10}, {Start: 200, End: 210}}

	// TunnelThirdOctets are third octets commonly used by port-forwarding and
	// tunneling tools for their virtual networks
	TunnelThirdOctets = map[byte]struct{}{99: {}, 100: {}, 200: {}, 201: {}}
)

const (
	ReasonLAN       = "LAN segment"
	ReasonTunnel    = "tunneling segment"
	ReasonCGNAT     = "carrier-grade NAT"
	ReasonAPIPA     = "link-local autoconfig"
	ReasonContainer = "container bridge"
	ReasonDefault   = "default route"
	ReasonLoopback  = "loopback"
	ReasonMulticast = "multicast"
	ReasonReserved  = "reserved or broadcast"
	ReasonOther     = "unrecognized range"
)

// Classify assigns a priority category and scan mode to a segment.
// First match wins:
//  1. loopback, multicast, reserved and 0.x are ignored
//  2. container bridges 172.17-172.30 are skipped
//  3. private LAN ranges are scanned fully
//  4. tunneling patterns are scanned fully
//  5. CGNAT and APIPA are scanned fast
//  6. everything else is skipped
func Classify(seg domain.Segment) domain.SegmentClassification {
	o := seg.Octets()
	a, b, c := o[0], o[1], o[2]

	switch {
	case a == 0:
		return ignore(ReasonDefault)
	case a == 127:
		return ignore(ReasonLoopback)
	case a >= 224 && a <= 239:
		return ignore(ReasonMulticast)
	case a >= 240:
		return ignore(ReasonReserved)
	}

	if a == 172 && b >= 17 && b <= 30 {
		return domain.SegmentClassification{
			Category: domain.CategoryLow,
			Mode:     domain.ScanModeSkip,
			Reason:   ReasonContainer,
		}
	}

	if a == 192 && b == 168 || a == 10 || a == 172 && b >= 16 && b <= 31 {
		return full(ReasonLAN)
	}

	if _, ok := TunnelThirdOctets[c]; ok {
		return full(ReasonTunnel)
	}

	if a == 100 && b >= 64 && b <= 127 {
		return fast(ReasonCGNAT)
	}
	if a == 169 && b == 254 {
		return fast(ReasonAPIPA)
	}

	return domain.SegmentClassification{
		Category: domain.CategoryLow,
		Mode:     domain.ScanModeSkip,
		Reason:   ReasonOther,
	}
}

// RangesFor returns the octet ranges a scan mode covers
func RangesFor(mode domain.ScanMode) []domain.OctetRange {
	switch mode {
	case domain.ScanModeFull:
		return append([]domain.OctetRange(nil), FullRanges...)
	case domain.ScanModeFast:
		return append([]domain.OctetRange(nil), FastRanges...)
	default:
		return nil
	}
}

func ignore(reason string) domain.SegmentClassification {
	return domain.SegmentClassification{
		Category: domain.CategorySpecial,
		Mode:     domain.ScanModeIgnore,
		Reason:   reason,
	}
}

func full(reason string) domain.SegmentClassification {
	return domain.SegmentClassification{
		Category: domain.CategoryHigh,
		Mode:     domain.ScanModeFull,
		Reason:   reason,
	}
}

func fast(reason string) domain.SegmentClassification {
	return domain.SegmentClassification{
		Category: domain.CategoryMedium,
		Mode:     domain.ScanModeFast,
		Reason:   reason,
	}
}
