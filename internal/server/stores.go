package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"tracker-parent/internal/config"
	"tracker-parent/internal/credstore"
	"tracker-parent/internal/prefs"
)

// Connections are the optional backing services opened at startup.
type Connections struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	SQLite   *sql.DB
}

func (c Connections) Close() {
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.SQLite != nil {
		_ = c.SQLite.Close()
	}
}

type Stores struct {
	Prefs       prefs.Store
	Credentials credstore.Store
}

// MemoryStores keep everything in process.
func MemoryStores() Stores {
	return Stores{
		Prefs:       prefs.NewMemory(),
		Credentials: credstore.NewKeychain(credstore.NewMemoryBackend(), nil),
	}
}

type schemaOwner interface {
	EnsureSchema(ctx context.Context) error
}

// OpenStores builds the preference and credential stores for
// cfg.StoreBackend on top of conns, creating tables where needed.
func OpenStores(ctx context.Context, cfg config.Config, conns Connections) (Stores, error) {
	sealer, err := credstore.NewSealer(cfg.CredentialSecret)
	if err != nil {
		return Stores{}, fmt.Errorf("credential sealer: %w", err)
	}

	var (
		p       prefs.Store
		backend credstore.Backend
		schemas []schemaOwner
	)
	switch cfg.StoreBackend {
	case "", "memory":
		p = prefs.NewMemory()
		backend = credstore.NewMemoryBackend()
	case "redis":
		if conns.Redis == nil {
			return Stores{}, fmt.Errorf("store backend redis: REDIS_ADDR not set")
		}
		p = prefs.NewRedis(conns.Redis)
		backend = credstore.NewRedisBackend(conns.Redis)
	case "postgres":
		if conns.Postgres == nil {
			return Stores{}, fmt.Errorf("store backend postgres: no connection")
		}
		pp := prefs.NewPostgres(conns.Postgres)
		pb := credstore.NewPostgresBackend(conns.Postgres)
		p, backend = pp, pb
		schemas = append(schemas, pp, pb)
	case "sqlite":
		if conns.SQLite == nil {
			return Stores{}, fmt.Errorf("store backend sqlite: no connection")
		}
		sp := prefs.NewSQLite(conns.SQLite)
		sb := credstore.NewSQLiteBackend(conns.SQLite)
		p, backend = sp, sb
		schemas = append(schemas, sp, sb)
	default:
		return Stores{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	for _, s := range schemas {
		if err := s.EnsureSchema(ctx); err != nil {
			return Stores{}, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return Stores{Prefs: p, Credentials: credstore.NewKeychain(backend, sealer)}, nil
}
