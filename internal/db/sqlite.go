package db

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

// OpenSQLite opens the on-device database. An in-memory database is pinned
// to a single connection, since each connection would otherwise get its own.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != memoryDSN {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == memoryDSN {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
