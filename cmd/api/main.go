package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tracker-parent/internal/config"
	"tracker-parent/internal/db"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(level, format string) *zap.Logger
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	openSQLite      func(path string) (*sql.DB, error)
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *zap.Logger, server.Stores, server.Connections, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logger.New,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		openSQLite:      db.OpenSQLite,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	log := deps.newLogger(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	conns, err := openConnections(deps, cfg)
	if err != nil {
		log.Error("backing store unavailable", zap.String("backend", cfg.StoreBackend), zap.Error(err))
		return
	}

	stores, err := server.OpenStores(context.Background(), cfg, conns)
	if err != nil {
		conns.Close()
		log.Error("open stores failed", zap.Error(err))
		return
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, log, stores, conns, signals, nil); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

// openConnections dials redis whenever it is configured, since the stream
// hub fans out through it, and the database the store backend needs.
func openConnections(deps mainDeps, cfg config.Config) (server.Connections, error) {
	var conns server.Connections
	conns.Redis = deps.connectRedis(cfg)

	switch cfg.StoreBackend {
	case "postgres":
		pg, err := deps.connectPostgres(cfg)
		if err != nil {
			conns.Close()
			return server.Connections{}, fmt.Errorf("postgres: %w", err)
		}
		conns.Postgres = pg
	case "sqlite":
		conn, err := deps.openSQLite(cfg.SQLitePath)
		if err != nil {
			conns.Close()
			return server.Connections{}, fmt.Errorf("sqlite: %w", err)
		}
		conns.SQLite = conn
	}
	return conns, nil
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger, stores server.Stores, conns server.Connections, signals <-chan os.Signal, listen ListenFunc) error {
	log = logger.OrNop(log)
	srv := server.NewServer(cfg, stores, conns.Redis, log)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.ServerPort))
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case sig := <-signals:
		log.Info("shutting down", zap.Stringer("signal", signalName{sig}))
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = srv.Close()
			conns.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	_ = srv.Close()
	conns.Close()
	return nil
}

type signalName struct{ os.Signal }

func (s signalName) String() string {
	if s.Signal == nil {
		return "closed"
	}
	return s.Signal.String()
}
