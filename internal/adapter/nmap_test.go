package adapter

import (
	"context"
	"net/netip"
	"testing"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"voicescout/internal/domain"
)

// TestNmapScanner_Options tests option functions
func TestNmapScanner_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		scanner := NewNmapScanner(nil)
		if scanner.timeout != 5*time.Minute {
			t.Errorf("expected timeout 5m, got %v", scanner.timeout)
		}
		if scanner.batchSize != 256 {
			t.Errorf("expected batch size 256, got %d", scanner.batchSize)
		}
		if scanner.timing != nmap.TimingAggressive {
			t.Errorf("expected aggressive timing, got %v", scanner.timing)
		}
	})

	t.Run("WithScanTimeout", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithScanTimeout(20*time.Second))
		if scanner.timeout != 20*time.Second {
			t.Errorf("expected timeout 20s, got %v", scanner.timeout)
		}
	})

	t.Run("WithScanTimeout ignores zero", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithScanTimeout(0))
		if scanner.timeout != 5*time.Minute {
			t.Errorf("expected default timeout, got %v", scanner.timeout)
		}
	})

	t.Run("WithBatchSize", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithBatchSize(64))
		if scanner.batchSize != 64 {
			t.Errorf("expected batch size 64, got %d", scanner.batchSize)
		}
	})

	t.Run("WithNmapBinary", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithNmapBinary("/opt/nmap/bin/nmap"))
		if scanner.binaryPath != "/opt/nmap/bin/nmap" {
			t.Errorf("expected binary path to be set, got %q", scanner.binaryPath)
		}
	})

	t.Run("WithTiming", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithTiming(nmap.TimingPolite))
		if scanner.timing != nmap.TimingPolite {
			t.Errorf("expected polite timing, got %v", scanner.timing)
		}
	})

	t.Run("WithParallelism", func(t *testing.T) {
		scanner := NewNmapScanner(nil, WithParallelism(16))
		if scanner.parallelism != 16 {
			t.Errorf("expected parallelism 16, got %d", scanner.parallelism)
		}
	})
}

// TestNmapScanner_ProcessResults tests parsing of mock nmap results
func TestNmapScanner_ProcessResults(t *testing.T) {
	scanner := NewNmapScanner(nil)

	mockResult := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{
					{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac"},
					{Addr: "192.168.1.50", AddrType: "ipv4"},
				},
				Status: nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 7860, Protocol: "tcp", State: nmap.State{State: "open"}},
					{ID: 9880, Protocol: "tcp", State: nmap.State{State: "closed"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.51", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 7860, Protocol: "tcp", State: nmap.State{State: "filtered"}},
					{ID: 9880, Protocol: "tcp", State: nmap.State{State: "closed"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.52", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 7860, Protocol: "tcp", State: nmap.State{State: "open"}},
					{ID: 9880, Protocol: "tcp", State: nmap.State{State: "open"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "fe80::1", AddrType: "ipv6"}},
				Ports: []nmap.Port{
					{ID: 7860, Protocol: "tcp", State: nmap.State{State: "open"}},
				},
			},
		},
	}

	results := scanner.processResults(mockResult, domain.DefaultPorts())

	want := []domain.HostProbeResult{
		{Address: netip.MustParseAddr("192.168.1.50"), WebPortOpen: true},
		{Address: netip.MustParseAddr("192.168.1.52"), WebPortOpen: true, SynthPortOpen: true},
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d: %+v", len(want), len(results), results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
}

// TestNmapScanner_NilResult tests handling of a nil run
func TestNmapScanner_NilResult(t *testing.T) {
	if results := NewNmapScanner(nil).processResults(nil, domain.DefaultPorts()); results != nil {
		t.Errorf("expected no results, got %+v", results)
	}
}

// TestNmapScanner_EmptyCandidates tests that nothing runs without candidates
func TestNmapScanner_EmptyCandidates(t *testing.T) {
	scanner := NewNmapScanner(nil, WithNmapBinary("/nonexistent/nmap"))

	results := scanner.Scan(context.Background(), addrs("10.0.0.0", "10.0.0.255"), domain.DefaultScanConfiguration())
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

// TestNmapScanner_MissingBinary tests that a broken binary degrades to no results
func TestNmapScanner_MissingBinary(t *testing.T) {
	scanner := NewNmapScanner(nil, WithNmapBinary("/nonexistent/nmap"))
	pub := &recordingPublisher{}
	scanner.SetEventPublisher(pub)

	if scanner.Available(context.Background()) {
		t.Fatal("expected nmap to be unavailable")
	}

	results := scanner.Scan(context.Background(), addrs("10.0.0.1"), domain.DefaultScanConfiguration())
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
	if len(pub.events) != 1 || pub.events[0] != EventScanProgress {
		t.Errorf("expected one progress event, got %v", pub.events)
	}
}

func TestPortList(t *testing.T) {
	if got := portList(domain.DefaultPorts()); got != "7860,9880" {
		t.Errorf("portList() = %s, want 7860,9880", got)
	}
}
