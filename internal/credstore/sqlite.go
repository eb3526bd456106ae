package credstore

import (
	"context"
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(conn *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: conn}
}

func (s *SQLiteBackend) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			namespace  TEXT NOT NULL,
			account    TEXT NOT NULL,
			payload    BLOB NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace, account)
		)
	`)
	return err
}

func (s *SQLiteBackend) Add(ctx context.Context, namespace, account string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (namespace, account, payload) VALUES (?,?,?)
	`, namespace, account, data)
	if isConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLiteBackend) Get(ctx context.Context, namespace, account string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM credentials WHERE namespace=? AND account=?
	`, namespace, account).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, namespace, account string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE namespace=? AND account=?`, namespace, account)
	return err
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
