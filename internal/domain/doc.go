// Package domain defines the core types of the voicescout discovery engine.
//
// # Network
//
// NetworkAdapter is a local interface and its scannable IPv4 addresses. A Segment
// is the "a.b.c" prefix of a /24 and is the unit the planner reasons about.
//
// # Planning
//
// SegmentClassification assigns a Category (priority) and ScanMode to a segment.
// ScanTarget expands a planned segment into octet ranges that never include the
// network (.0) or broadcast (.255) address.
//
// # Results
//
// HostProbeResult is the transient outcome of probing one address on the web and
// synth ports. VerifiedServer is the terminal output: a live host that passed the
// protocol check, identified by its address.
//
// ScanConfiguration carries timeouts, pool sizes and ports for one discovery call.
package domain
