package planner

import (
	"fmt"
	"testing"

	"voicescout/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		segment  string
		category domain.Category
		mode     domain.ScanMode
		reason   string
	}{
		{"192.168.1", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"192.168.100", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"10.0.0", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"10.255.7", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"172.16.5", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"172.31.0", domain.CategoryHigh, domain.ScanModeFull, ReasonLAN},
		{"172.17.0", domain.CategoryLow, domain.ScanModeSkip, ReasonContainer},
		{"172.30.9", domain.CategoryLow, domain.ScanModeSkip, ReasonContainer},
		{"26.26.99", domain.CategoryHigh, domain.ScanModeFull, ReasonTunnel},
		{"25.4.201", domain.CategoryHigh, domain.ScanModeFull, ReasonTunnel},
		{"100.64.3", domain.CategoryMedium, domain.ScanModeFast, ReasonCGNAT},
		{"100.127.255", domain.CategoryMedium, domain.ScanModeFast, ReasonCGNAT},
		{"169.254.12", domain.CategoryMedium, domain.ScanModeFast, ReasonAPIPA},
		{"100.128.1", domain.CategoryLow, domain.ScanModeSkip, ReasonOther},
		{"8.8.8", domain.CategoryLow, domain.ScanModeSkip, ReasonOther},
		{"0.0.0", domain.CategorySpecial, domain.ScanModeIgnore, ReasonDefault},
		{"127.0.0", domain.CategorySpecial, domain.ScanModeIgnore, ReasonLoopback},
		{"224.0.0", domain.CategorySpecial, domain.ScanModeIgnore, ReasonMulticast},
		{"239.255.255", domain.CategorySpecial, domain.ScanModeIgnore, ReasonMulticast},
		{"255.255.255", domain.CategorySpecial, domain.ScanModeIgnore, ReasonReserved},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			got := Classify(domain.MustSegment(tt.segment))
			if got.Category != tt.category || got.Mode != tt.mode || got.Reason != tt.reason {
				t.Errorf("Classify(%s) = %s/%s/%q, want %s/%s/%q", tt.segment,
					got.Category, got.Mode, got.Reason, tt.category, tt.mode, tt.reason)
			}
		})
	}
}

func TestClassify_PrivateRangesAreFull(t *testing.T) {
	for b := 0; b <= 255; b += 17 {
		for c := 0; c <= 255; c += 51 {
			seg := domain.MustSegment(fmt.Sprintf("192.168.%d", c))
			if got := Classify(seg).Mode; got != domain.ScanModeFull {
				t.Errorf("Classify(%s).Mode = %s, want full", seg, got)
			}
			seg = domain.MustSegment(fmt.Sprintf("10.%d.%d", b, c))
			if got := Classify(seg).Mode; got != domain.ScanModeFull {
				t.Errorf("Classify(%s).Mode = %s, want full", seg, got)
			}
		}
	}

	for b := 16; b <= 31; b++ {
		seg := domain.MustSegment(fmt.Sprintf("172.%d.1", b))
		want := domain.ScanModeFull
		if b >= 17 && b <= 30 {
			want = domain.ScanModeSkip
		}
		if got := Classify(seg).Mode; got != want {
			t.Errorf("Classify(%s).Mode = %s, want %s", seg, got, want)
		}
	}
}

func TestClassify_SpecialRangesAreIgnored(t *testing.T) {
	for _, a := range []int{0, 127, 224, 230, 239, 240, 250, 255} {
		seg := domain.MustSegment(fmt.Sprintf("%d.1.2", a))
		if got := Classify(seg).Mode; got != domain.ScanModeIgnore {
			t.Errorf("Classify(%s).Mode = %s, want ignore", seg, got)
		}
	}
}

func TestRangesFor(t *testing.T) {
	tests := []struct {
		mode  domain.ScanMode
		count int
	}{
		{domain.ScanModeFull, 254},
		{domain.ScanModeFast, 21},
		{domain.ScanModeSkip, 0},
		{domain.ScanModeIgnore, 0},
	}

	for _, tt := range tests {
		total := 0
		for _, r := range RangesFor(tt.mode) {
			total += r.Count()
		}
		if total != tt.count {
			t.Errorf("RangesFor(%s) covers %d octets, want %d", tt.mode, total, tt.count)
		}
	}
}
