// Package handler implements the HTTP API of the voicescout server.
//
// DiscoveryHandler exposes discovery, the scan plan, local adapters, the
// remembered server catalog and run history as JSON. Remembered servers can
// also be exported through any codec format.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes.
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint, served by the hub package, streams discovery progress
// so dashboards can follow a running discovery.
package handler
