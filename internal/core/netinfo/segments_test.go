package netinfo

import (
	"net/netip"
	"testing"

	"voicescout/internal/domain"
)

func adapter(name string, kind domain.AdapterKind, connected bool, addrs ...string) domain.NetworkAdapter {
	a := domain.NetworkAdapter{Name: name, Kind: kind, Connected: connected}
	for _, s := range addrs {
		a.Addresses = append(a.Addresses, netip.MustParseAddr(s))
	}
	return a
}

func TestSegments(t *testing.T) {
	adapters := []domain.NetworkAdapter{
		adapter("wlan0", domain.AdapterKindWiFi, true, "192.168.1.20", "192.168.1.21"),
		adapter("eth0", domain.AdapterKindEthernet, true, "10.0.0.3", "192.168.1.30"),
		adapter("tun0", domain.AdapterKindOther, false, "100.64.0.2"),
	}

	got := Segments(adapters)
	want := []domain.Segment{"192.168.1", "10.0.0"}
	if len(got) != len(want) {
		t.Fatalf("Segments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Segments()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPrimarySegment(t *testing.T) {
	tests := []struct {
		name     string
		adapters []domain.NetworkAdapter
		want     domain.Segment
		wantOK   bool
	}{
		{
			name: "ethernet preferred over wifi",
			adapters: []domain.NetworkAdapter{
				adapter("wlan0", domain.AdapterKindWiFi, true, "192.168.1.20"),
				adapter("eth0", domain.AdapterKindEthernet, true, "10.0.0.3"),
			},
			want: "10.0.0", wantOK: true,
		},
		{
			name: "wifi preferred over other",
			adapters: []domain.NetworkAdapter{
				adapter("tun0", domain.AdapterKindOther, true, "100.64.0.2"),
				adapter("wlan0", domain.AdapterKindWiFi, true, "192.168.1.20"),
			},
			want: "192.168.1", wantOK: true,
		},
		{
			name: "falls back to first connected",
			adapters: []domain.NetworkAdapter{
				adapter("eth0", domain.AdapterKindEthernet, false, "10.0.0.3"),
				adapter("tun0", domain.AdapterKindOther, true, "100.64.0.2"),
			},
			want: "100.64.0", wantOK: true,
		},
		{
			name:   "nothing connected",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrimarySegment(tt.adapters)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("PrimarySegment() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQualifies(t *testing.T) {
	tests := map[string]bool{
		"192.168.1.5": true,
		"10.1.2.3":    true,
		"127.0.0.1":   false,
		"169.254.9.9": false,
		"0.0.0.0":     false,
		"::1":         false,
	}
	for s, want := range tests {
		if got := Qualifies(netip.MustParseAddr(s)); got != want {
			t.Errorf("Qualifies(%s) = %v, want %v", s, got, want)
		}
	}
}
