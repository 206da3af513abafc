package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"voicescout/internal/domain"
	"voicescout/internal/repository"
)

// timeLayout is fixed width so that text comparison orders chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// portToNull converts an optional port to sql.NullInt64
func portToNull(p *uint16) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// nullToPort converts sql.NullInt64 to an optional port
func nullToPort(ni sql.NullInt64) *uint16 {
	if !ni.Valid || ni.Int64 <= 0 || ni.Int64 > 65535 {
		return nil
	}
	return domain.PortPtr(uint16(ni.Int64))
}

// formatTime renders a time in the stored layout, always UTC
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored time, accepting plain RFC3339 too
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid stored time %q", s)
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a slice to nullable JSON; empty slices are stored as NULL
func marshalToNull(v []string) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Types
// ============================================================================

// serverRow mirrors the servers table
type serverRow struct {
	address   string
	webPort   sql.NullInt64
	synthPort sql.NullInt64
	evidence  sql.NullString
	voices    sql.NullString
	firstSeen string
	lastSeen  string
	lastRunID sql.NullString
	timesSeen int
}

const serverColumns = `address, web_port, synth_port, evidence, voices, first_seen, last_seen, last_run_id, times_seen`

func (r *serverRow) scanArgs() []interface{} {
	return []interface{}{
		&r.address, &r.webPort, &r.synthPort, &r.evidence, &r.voices,
		&r.firstSeen, &r.lastSeen, &r.lastRunID, &r.timesSeen,
	}
}

func (r *serverRow) toDomain() (*repository.StoredServer, error) {
	addr, err := netip.ParseAddr(r.address)
	if err != nil {
		return nil, fmt.Errorf("stored address %q: %w", r.address, err)
	}

	s := &repository.StoredServer{
		VerifiedServer: domain.VerifiedServer{
			Address:   addr,
			WebPort:   nullToPort(r.webPort),
			SynthPort: nullToPort(r.synthPort),
			Evidence:  domain.Evidence(nullToString(r.evidence)),
		},
		LastRunID: nullToString(r.lastRunID),
		TimesSeen: r.timesSeen,
	}

	if err := unmarshalJSONField(r.voices, &s.Voices); err != nil {
		return nil, fmt.Errorf("stored voices for %s: %w", r.address, err)
	}
	if s.FirstSeen, err = parseTime(r.firstSeen); err != nil {
		return nil, err
	}
	if s.LastSeen, err = parseTime(r.lastSeen); err != nil {
		return nil, err
	}
	return s, nil
}

// runRow mirrors the runs table
type runRow struct {
	id         string
	startedAt  string
	durationMS int64
	fast       sql.NullInt64
	fastExit   sql.NullInt64
	fallback   sql.NullInt64
	segments   int
	addresses  int
	liveHosts  int
	servers    int
}

const runColumns = `id, started_at, duration_ms, fast, fast_exit, fallback, segments, addresses, live_hosts, servers`

func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.id, &r.startedAt, &r.durationMS, &r.fast, &r.fastExit, &r.fallback,
		&r.segments, &r.addresses, &r.liveHosts, &r.servers,
	}
}

func (r *runRow) toDomain() (repository.RunRecord, error) {
	started, err := parseTime(r.startedAt)
	if err != nil {
		return repository.RunRecord{}, err
	}
	return repository.RunRecord{
		ID:        r.id,
		StartedAt: started,
		Duration:  time.Duration(r.durationMS) * time.Millisecond,
		Fast:      nullToBool(r.fast),
		FastExit:  nullToBool(r.fastExit),
		Fallback:  nullToBool(r.fallback),
		Segments:  r.segments,
		Addresses: r.addresses,
		LiveHosts: r.liveHosts,
		Servers:   r.servers,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
