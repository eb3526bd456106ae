package credstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tracker-parent/internal/db"
)

const pgUniqueViolation = "23505"

type PostgresBackend struct {
	db db.Querier
}

func NewPostgresBackend(q db.Querier) *PostgresBackend {
	return &PostgresBackend{db: q}
}

func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			namespace  TEXT NOT NULL,
			account    TEXT NOT NULL,
			payload    BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, account)
		)
	`)
	return err
}

func (p *PostgresBackend) Add(ctx context.Context, namespace, account string, data []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO credentials (namespace, account, payload)
		VALUES ($1,$2,$3)
	`, namespace, account, data)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (p *PostgresBackend) Get(ctx context.Context, namespace, account string) ([]byte, bool, error) {
	var data []byte
	err := p.db.QueryRow(ctx, `
		SELECT payload FROM credentials WHERE namespace=$1 AND account=$2
	`, namespace, account).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (p *PostgresBackend) Delete(ctx context.Context, namespace, account string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM credentials WHERE namespace=$1 AND account=$2`, namespace, account)
	return err
}
