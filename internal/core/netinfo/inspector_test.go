package netinfo

import (
	"errors"
	"net"
	"testing"

	"voicescout/internal/domain"
)

func ipnet(s string) *net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestSystemInspector_ListAdapters(t *testing.T) {
	source := func() ([]Interface, error) {
		return []Interface{
			{Name: "lo", Up: true, Loopback: true, Addrs: []net.Addr{ipnet("127.0.0.1/8")}},
			{Name: "eth0", Up: true, Addrs: []net.Addr{ipnet("192.168.1.20/24"), ipnet("fe80::1/64")}},
			{Name: "wlan0", Up: true, Addrs: []net.Addr{ipnet("169.254.3.4/16"), ipnet("10.0.5.7/24")}},
			{Name: "tun0", Up: false, Addrs: []net.Addr{ipnet("100.64.1.2/10")}},
			{Name: "docker0", Up: true, Addrs: []net.Addr{ipnet("169.254.1.1/16")}},
			{Name: "empty", Up: true},
		}, nil
	}

	adapters := NewInspector(source, nil).ListAdapters()
	if len(adapters) != 3 {
		t.Fatalf("got %d adapters, want 3: %+v", len(adapters), adapters)
	}

	tests := []struct {
		name      string
		kind      domain.AdapterKind
		connected bool
		addrs     []string
	}{
		{"eth0", domain.AdapterKindEthernet, true, []string{"192.168.1.20"}},
		{"wlan0", domain.AdapterKindWiFi, true, []string{"10.0.5.7"}},
		{"tun0", domain.AdapterKindOther, false, []string{"100.64.1.2"}},
	}
	for i, tt := range tests {
		got := adapters[i]
		if got.Name != tt.name || got.Kind != tt.kind || got.Connected != tt.connected {
			t.Errorf("adapter[%d] = %s/%s/%v, want %s/%s/%v", i,
				got.Name, got.Kind, got.Connected, tt.name, tt.kind, tt.connected)
		}
		if len(got.Addresses) != len(tt.addrs) {
			t.Errorf("adapter %s has %d addresses, want %d", got.Name, len(got.Addresses), len(tt.addrs))
			continue
		}
		for j, a := range got.Addresses {
			if a.String() != tt.addrs[j] {
				t.Errorf("adapter %s address %d = %s, want %s", got.Name, j, a, tt.addrs[j])
			}
		}
	}
}

func TestSystemInspector_SourceFailure(t *testing.T) {
	source := func() ([]Interface, error) { return nil, errors.New("permission denied") }

	adapters := NewInspector(source, nil).ListAdapters()
	if len(adapters) != 0 {
		t.Errorf("expected empty adapter list on failure, got %d", len(adapters))
	}
}

func TestClassifyKind(t *testing.T) {
	tests := map[string]domain.AdapterKind{
		"Wi-Fi":                     domain.AdapterKindWiFi,
		"WLAN":                      domain.AdapterKindWiFi,
		"wlan0":                     domain.AdapterKindWiFi,
		"wlp2s0":                    domain.AdapterKindWiFi,
		"Wireless Network":          domain.AdapterKindWiFi,
		"Ethernet 2":                domain.AdapterKindEthernet,
		"Local Area Connection":     domain.AdapterKindEthernet,
		"eth0":                      domain.AdapterKindEthernet,
		"enp3s0":                    domain.AdapterKindEthernet,
		"tailscale0":                domain.AdapterKindOther,
		"Bluetooth Network Adapter": domain.AdapterKindOther,
	}
	for name, want := range tests {
		if got := ClassifyKind(name); got != want {
			t.Errorf("ClassifyKind(%q) = %s, want %s", name, got, want)
		}
	}
}
