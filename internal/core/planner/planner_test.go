package planner

import (
	"math"
	"testing"
	"time"

	"voicescout/internal/domain"
)

func segments(ss ...string) []domain.Segment {
	out := make([]domain.Segment, len(ss))
	for i, s := range ss {
		out[i] = domain.MustSegment(s)
	}
	return out
}

func TestPlan_OrdersByPriority(t *testing.T) {
	p := New(domain.DefaultScanConfiguration())

	plan := p.Plan(segments("100.64.3", "172.17.0", "192.168.1", "127.0.0", "10.0.0", "192.168.1"))

	want := []struct {
		segment string
		mode    domain.ScanMode
	}{
		{"10.0.0", domain.ScanModeFull},
		{"192.168.1", domain.ScanModeFull},
		{"100.64.3", domain.ScanModeFast},
	}
	if len(plan.Targets) != len(want) {
		t.Fatalf("got %d targets, want %d: %+v", len(plan.Targets), len(want), plan.Targets)
	}
	for i, w := range want {
		got := plan.Targets[i]
		if got.Segment != domain.Segment(w.segment) || got.Mode != w.mode {
			t.Errorf("target[%d] = %s/%s, want %s/%s", i, got.Segment, got.Mode, w.segment, w.mode)
		}
	}

	if len(plan.Skipped) != 2 {
		t.Fatalf("got %d skipped, want 2: %+v", len(plan.Skipped), plan.Skipped)
	}
	if plan.Skipped[0].Segment != "172.17.0" || plan.Skipped[1].Segment != "127.0.0" {
		t.Errorf("skipped = %+v, want 172.17.0 then 127.0.0", plan.Skipped)
	}

	if plan.Estimate.TotalAddresses != 254+254+21 {
		t.Errorf("TotalAddresses = %d, want %d", plan.Estimate.TotalAddresses, 254+254+21)
	}
}

func TestPlan_NeverEmitsSkipOrIgnore(t *testing.T) {
	p := New(domain.DefaultScanConfiguration())
	plan := p.Plan(segments("8.8.8", "172.20.0", "0.0.0", "224.0.0", "192.168.0", "169.254.1"))

	for _, target := range plan.Targets {
		if !target.Mode.Scans() {
			t.Errorf("target %s has non-scanning mode %s", target.Segment, target.Mode)
		}
	}
}

func TestPlan_FullRangeForLAN(t *testing.T) {
	p := New(domain.DefaultScanConfiguration())
	plan := p.Plan(segments("192.168.1"))

	if len(plan.Targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(plan.Targets))
	}
	ranges := plan.Targets[0].Ranges
	if len(ranges) != 1 || ranges[0] != (domain.OctetRange{Start: 1, End: 254}) {
		t.Errorf("ranges = %+v, want [(1,254)]", ranges)
	}

	addrs := plan.Addresses()
	if len(addrs) != 254 {
		t.Fatalf("got %d addresses, want 254", len(addrs))
	}
	if addrs[0].String() != "192.168.1.1" || addrs[253].String() != "192.168.1.254" {
		t.Errorf("addresses span %s..%s, want 192.168.1.1..192.168.1.254", addrs[0], addrs[253])
	}
}

func TestPlan_IncludeLowPriority(t *testing.T) {
	cfg := domain.DefaultScanConfiguration()
	cfg.IncludeLowPriority = true
	p := New(cfg)

	plan := p.Plan(segments("8.8.8", "127.0.0", "192.168.1"))

	if len(plan.Targets) != 2 {
		t.Fatalf("got %d targets, want 2: %+v", len(plan.Targets), plan.Targets)
	}
	if plan.Targets[0].Segment != "192.168.1" {
		t.Errorf("first target = %s, want 192.168.1", plan.Targets[0].Segment)
	}
	low := plan.Targets[1]
	if low.Segment != "8.8.8" || low.Mode != domain.ScanModeFast {
		t.Errorf("low target = %s/%s, want 8.8.8/fast", low.Segment, low.Mode)
	}
	// Special segments stay out even with low priority included
	if len(plan.Skipped) != 1 || plan.Skipped[0].Segment != "127.0.0" {
		t.Errorf("skipped = %+v, want only 127.0.0", plan.Skipped)
	}
}

func TestPlan_Empty(t *testing.T) {
	p := New(domain.DefaultScanConfiguration())
	plan := p.Plan(nil)

	if !plan.Empty() {
		t.Error("plan of no segments should be empty")
	}
	if plan.Estimate != (Estimate{}) {
		t.Errorf("Estimate = %+v, want zero", plan.Estimate)
	}
}

func TestFallbackPlan(t *testing.T) {
	p := New(domain.DefaultScanConfiguration())
	plan := p.FallbackPlan()

	if !plan.Fallback {
		t.Error("Fallback should be set")
	}
	addrs := plan.Addresses()
	if len(addrs) != 30 {
		t.Fatalf("got %d addresses, want 30", len(addrs))
	}
	if addrs[0].String() != "192.168.1.1" || addrs[29].String() != "10.0.0.10" {
		t.Errorf("addresses span %s..%s, want 192.168.1.1..10.0.0.10", addrs[0], addrs[29])
	}
}

func TestEstimateFor(t *testing.T) {
	cfg := domain.DefaultScanConfiguration()
	cfg.ProbeTimeout = 500 * time.Millisecond
	cfg.MaxConcurrentProbes = 100

	tests := []struct {
		name    string
		total   int
		seconds float64
	}{
		{"zero", 0, 0},
		{"fewer than workers", 21, 0.5},
		{"one segment", 254, 1.27},
		{"two segments", 508, 2.54},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateFor(tt.total, cfg)
			if got.TotalAddresses != tt.total {
				t.Errorf("TotalAddresses = %d, want %d", got.TotalAddresses, tt.total)
			}
			if math.Abs(got.EstimatedSeconds-tt.seconds) > 1e-9 {
				t.Errorf("EstimatedSeconds = %f, want %f", got.EstimatedSeconds, tt.seconds)
			}
		})
	}
}
