package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Open opens the local store at path with pragmas tuned for an
// offline-first single-device workload:
//   - journal_mode=WAL: readers do not block the writer
//   - foreign_keys=ON: enforce referential integrity
//   - busy_timeout=5000: wait 5s on lock instead of failing immediately
//   - synchronous=NORMAL: good balance of safety and speed
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections.
	// This is also the secondary guard behind the per-user locks in the
	// player mutator: two goroutines can never write the same row at once.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// DefaultPath returns the default on-device database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".questa/questa.db"
	}
	return filepath.Join(home, ".questa", "questa.db")
}
