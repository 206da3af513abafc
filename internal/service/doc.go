// Package service implements discovery and the server catalog for voicescout.
//
// This package sits between the CLI/HTTP surfaces and the adapters, planner
// and repository layers.
//
// # Services
//
// Discovery runs one stateless discovery call: check the seeds, exit early in
// fast mode when they are enough, otherwise plan the local segments, scan them,
// verify live hosts and deduplicate.
//
// ServerCatalog wraps Discovery with configured seeds and the history store,
// so servers found before are checked first and every run is recorded.
//
// # Event System
//
// Discovery progress is published on the EventBus and streamed to connected
// clients via Server-Sent Events (SSE).
package service
