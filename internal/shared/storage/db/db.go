package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"internify/internal/shared/telemetry"

	_ "modernc.org/sqlite" // register the pure-Go sqlite database/sql driver
)

const driverName = "sqlite"

// Options controls connectivity behavior of the local state database.
type Options struct {
	MaxOpenConns int
	BusyTimeout  time.Duration
	PingTimeout  time.Duration
}

var openDB = sql.Open

// DefaultOptions returns defaults for a single-process CLI.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
		PingTimeout:  3 * time.Second,
	}
}

// OptionsFromEnv overrides defaults with STATE_DB_* env vars if present.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	if v, ok := readEnvInt("STATE_DB_MAX_OPEN_CONNS"); ok {
		opts.MaxOpenConns = v
	}
	if v, ok := readEnvDuration("STATE_DB_BUSY_TIMEOUT"); ok {
		opts.BusyTimeout = v
	}
	if v, ok := readEnvDuration("STATE_DB_PING_TIMEOUT"); ok {
		opts.PingTimeout = v
	}
	return opts
}

// Connect opens the sqlite file at path, creating its directory, and verifies connectivity.
// The special path ":memory:" opens a private in-memory database.
func Connect(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("state path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := openDB(driverName, dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 1
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Debug("state.db.open", map[string]any{"path": path, "max_open": opts.MaxOpenConns})
	return db, nil
}

func dsn(path string, opts Options) string {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	if path == ":memory:" {
		return path + "?" + q.Encode()
	}
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("state.db.env_invalid", map[string]any{"key": key, "err": err})
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("state.db.env_invalid", map[string]any{"key": key, "err": err})
		return 0, false
	}
	return val, true
}
