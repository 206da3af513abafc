// Package adapter implements the network-facing parts of speech server discovery.
//
// # Probing
//
// TCPProber performs a single bounded TCP connect. It never returns an error:
// refused, unreachable and timed out connections are all "closed".
//
// # Host Scanners
//
// NativeScanner fans candidate addresses out over a bounded errgroup pool and
// probes the web and synth ports of each host concurrently. NmapScanner drives
// an installed nmap binary with a TCP connect scan and honours the same
// contract. Both publish scan-progress events through an EventPublisher.
//
// # Verification
//
// ServiceVerifier applies two tiers: the Gradio voice listing on the web port,
// then a plain HTTP GET on the synth port. Protocol failures mean "not
// verified", never an error.
package adapter
