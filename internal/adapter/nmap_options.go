package adapter

import (
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// NmapOption is a functional option for configuring NmapScanner
type NmapOption func(*NmapScanner)

// WithNmapBinary sets an explicit path to the nmap binary
func WithNmapBinary(path string) NmapOption {
	return func(n *NmapScanner) {
		n.binaryPath = path
	}
}

// WithScanTimeout bounds each nmap invocation
func WithScanTimeout(d time.Duration) NmapOption {
	return func(n *NmapScanner) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithBatchSize sets how many hosts are passed to one nmap invocation
func WithBatchSize(size int) NmapOption {
	return func(n *NmapScanner) {
		if size > 0 {
			n.batchSize = size
		}
	}
}

// WithTiming sets the nmap timing template (-T0 .. -T5)
func WithTiming(t nmap.Timing) NmapOption {
	return func(n *NmapScanner) {
		n.timing = t
	}
}

// WithParallelism overrides the probe parallelism, which otherwise follows
// MaxConcurrentProbes
func WithParallelism(p int) NmapOption {
	return func(n *NmapScanner) {
		n.parallelism = p
	}
}
