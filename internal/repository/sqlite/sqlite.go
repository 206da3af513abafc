package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicescout/internal/domain"
	"voicescout/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Store using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Store = (*Repository)(nil)

// New creates a new SQLite repository. ":memory:" opens a private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps :memory: shared
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS servers (
		address TEXT PRIMARY KEY,
		web_port INTEGER,
		synth_port INTEGER,
		evidence TEXT,
		voices JSON,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		last_run_id TEXT,
		times_seen INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		fast INTEGER NOT NULL DEFAULT 0,
		fast_exit INTEGER NOT NULL DEFAULT 0,
		fallback INTEGER NOT NULL DEFAULT 0,
		segments INTEGER NOT NULL DEFAULT 0,
		addresses INTEGER NOT NULL DEFAULT 0,
		live_hosts INTEGER NOT NULL DEFAULT 0,
		servers INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_servers_last_seen ON servers(last_seen);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveRun inserts or replaces a run summary
func (r *Repository) SaveRun(ctx context.Context, run repository.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			fast = excluded.fast,
			fast_exit = excluded.fast_exit,
			fallback = excluded.fallback,
			segments = excluded.segments,
			addresses = excluded.addresses,
			live_hosts = excluded.live_hosts,
			servers = excluded.servers
	`, run.ID, formatTime(run.StartedAt), run.Duration.Milliseconds(),
		boolToInt(run.Fast), boolToInt(run.FastExit), boolToInt(run.Fallback),
		run.Segments, run.Addresses, run.LiveHosts, run.Servers)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]repository.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []repository.RunRecord
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, err
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpsertServers records a sighting of every server. FirstSeen is kept from the
// first sighting; everything else reflects the latest one.
func (r *Repository) UpsertServers(ctx context.Context, runID string, seenAt time.Time, servers []domain.VerifiedServer) error {
	if len(servers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO servers (`+serverColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(address) DO UPDATE SET
			web_port = excluded.web_port,
			synth_port = excluded.synth_port,
			evidence = excluded.evidence,
			voices = excluded.voices,
			last_seen = excluded.last_seen,
			last_run_id = excluded.last_run_id,
			times_seen = servers.times_seen + 1
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	seen := formatTime(seenAt)
	for _, s := range servers {
		if !s.Valid() {
			return fmt.Errorf("server %s has no open port", s.Address)
		}
		voices, err := marshalToNull(s.Voices)
		if err != nil {
			return fmt.Errorf("marshal voices for %s: %w", s.Address, err)
		}
		if _, err := stmt.ExecContext(ctx,
			s.Key(), portToNull(s.WebPort), portToNull(s.SynthPort),
			stringToNull(string(s.Evidence)), voices, seen, seen, stringToNull(runID),
		); err != nil {
			return fmt.Errorf("upsert server %s: %w", s.Address, err)
		}
	}

	return tx.Commit()
}

// GetServer retrieves a single server by address
func (r *Repository) GetServer(ctx context.Context, address string) (*repository.StoredServer, error) {
	var row serverRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+serverColumns+` FROM servers WHERE address = ?
	`, address).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", address, err)
	}
	return row.toDomain()
}

// ListServers returns every remembered server, most recently seen first
func (r *Repository) ListServers(ctx context.Context) ([]repository.StoredServer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+serverColumns+` FROM servers
		ORDER BY last_seen DESC, address
	`)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var servers []repository.StoredServer
	for rows.Next() {
		var row serverRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, err
		}
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		servers = append(servers, *s)
	}
	return servers, rows.Err()
}

// KnownAddresses returns remembered addresses, most recently seen first
func (r *Repository) KnownAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address FROM servers ORDER BY last_seen DESC, address
	`)
	if err != nil {
		return nil, fmt.Errorf("known addresses: %w", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// ForgetServer removes a server from the history
func (r *Repository) ForgetServer(ctx context.Context, address string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("forget server %s: %w", address, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
