package repository

import (
	"context"
	"errors"
	"time"

	"voicescout/internal/domain"
)

// ErrNotFound is returned when a server or run does not exist
var ErrNotFound = errors.New("not found")

// StoredServer is a verified server together with its sighting history
type StoredServer struct {
	domain.VerifiedServer
	FirstSeen time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time `json:"last_seen" yaml:"last_seen"`
	LastRunID string    `json:"last_run_id,omitempty" yaml:"last_run_id,omitempty"`
	TimesSeen int       `json:"times_seen" yaml:"times_seen"`
}

// RunRecord summarizes one discovery call
type RunRecord struct {
	ID        string        `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Fast      bool          `json:"fast" yaml:"fast"`
	FastExit  bool          `json:"fast_exit" yaml:"fast_exit"`
	Fallback  bool          `json:"fallback" yaml:"fallback"`
	Segments  int           `json:"segments" yaml:"segments"`
	Addresses int           `json:"addresses" yaml:"addresses"`
	LiveHosts int           `json:"live_hosts" yaml:"live_hosts"`
	Servers   int           `json:"servers" yaml:"servers"`
}

// Store persists discovery history
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// Servers
	UpsertServers(ctx context.Context, runID string, seenAt time.Time, servers []domain.VerifiedServer) error
	GetServer(ctx context.Context, address string) (*StoredServer, error)
	ListServers(ctx context.Context) ([]StoredServer, error)
	KnownAddresses(ctx context.Context) ([]string, error)
	ForgetServer(ctx context.Context, address string) error

	// Close releases resources
	Close() error
}
